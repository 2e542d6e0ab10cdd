package domain

import (
	"context"
	"errors"
	"testing"

	"voicechat/internal/ai"
	"voicechat/internal/audio"
	"voicechat/internal/lang"
	"voicechat/internal/ports"
	"voicechat/internal/session"
	"voicechat/internal/speech"
)

type fakeSTT struct {
	calls int
	errs  []error
	text  string
}

func (f *fakeSTT) Transcribe(ctx context.Context, buf *audio.Buffer, locale string) (string, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	return f.text, nil
}

type fakeTTS struct {
	calls int
	err   error
	out   []byte
}

func (f *fakeTTS) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeDialogue struct {
	calls      int
	err        error
	reply      string
	gotHistory []ports.Turn
	gotText    string
}

func (f *fakeDialogue) Reply(ctx context.Context, history []ports.Turn, userText string, language lang.Language) (string, error) {
	f.calls++
	f.gotHistory = append([]ports.Turn(nil), history...)
	f.gotText = userText
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeNotifier struct {
	calls int
}

func (f *fakeNotifier) Notify(ctx context.Context, err error, details string) error {
	f.calls++
	return nil
}

// toneWAV builds a mono 16 kHz square tone. Loud enough for the ambient
// gate's peak check, so mic captures survive calibration.
func toneWAV(ms int) []byte {
	n := audio.CanonicalRate * ms / 1000
	samples := make([]int16, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 8000
		} else {
			samples[i] = -8000
		}
	}
	buf := &audio.Buffer{Samples: samples, SampleRate: audio.CanonicalRate}
	return buf.WAV()
}

type fixture struct {
	sessions *session.Manager
	stt      *fakeSTT
	tts      *fakeTTS
	dialogue *fakeDialogue
	notifier *fakeNotifier
	svc      ports.TurnService
}

func newFixture() *fixture {
	f := &fixture{
		sessions: session.NewManager(),
		stt:      &fakeSTT{text: "apa kabar"},
		tts:      &fakeTTS{out: []byte("mp3-bytes")},
		dialogue: &fakeDialogue{reply: "Baik, terima kasih!"},
		notifier: &fakeNotifier{},
	}
	f.svc = NewTurnService(
		f.sessions,
		speech.NewService(f.stt, f.tts),
		f.dialogue,
		nil, nil,
		f.notifier,
		nil,
	)
	return f
}

func fileInput(sessionID string) ports.TurnInput {
	return ports.TurnInput{
		SessionID: sessionID,
		Source:    audio.SourceFile,
		Language:  lang.Indonesian,
		Audio:     toneWAV(1500),
		Filename:  "clip.wav",
	}
}

func TestProcessTurnSuccess(t *testing.T) {
	f := newFixture()

	res, err := f.svc.ProcessTurn(context.Background(), fileInput("s1"))
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if res.Transcript != "apa kabar" {
		t.Errorf("transcript = %q", res.Transcript)
	}
	if res.Reply != "Baik, terima kasih!" {
		t.Errorf("reply = %q", res.Reply)
	}
	if string(res.Audio) != "mp3-bytes" {
		t.Errorf("audio = %q", res.Audio)
	}
	if res.SynthesisFailed || res.Deduplicated {
		t.Errorf("unexpected flags: %+v", res)
	}

	h := f.sessions.Get("s1").History()
	if len(h) != 2 {
		t.Fatalf("history = %d turns, want 2", len(h))
	}
	if h[0].Role != ports.SpeakerUser || h[0].Content != "apa kabar" {
		t.Errorf("h[0] = %+v", h[0])
	}
	if h[1].Role != ports.SpeakerAssistant || h[1].Content != "Baik, terima kasih!" {
		t.Errorf("h[1] = %+v", h[1])
	}
}

func TestProcessTurnPassesPriorHistoryOnly(t *testing.T) {
	f := newFixture()
	sess := f.sessions.GetOrCreate("s1")
	sess.AppendTurn(ports.Turn{Role: ports.SpeakerUser, Content: "earlier"})
	sess.AppendTurn(ports.Turn{Role: ports.SpeakerAssistant, Content: "reply"})

	if _, err := f.svc.ProcessTurn(context.Background(), fileInput("s1")); err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	// the new utterance travels as userText, not duplicated in history
	if len(f.dialogue.gotHistory) != 2 {
		t.Fatalf("dialogue history = %d turns, want 2", len(f.dialogue.gotHistory))
	}
	if f.dialogue.gotText != "apa kabar" {
		t.Errorf("dialogue userText = %q", f.dialogue.gotText)
	}
}

func TestEmptyAudio(t *testing.T) {
	f := newFixture()

	in := fileInput("s1")
	in.Audio = nil
	_, err := f.svc.ProcessTurn(context.Background(), in)
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	f := newFixture()

	in := fileInput("s1")
	in.Audio = []byte("definitely not audio")
	in.Filename = "clip.ogg"
	_, err := f.svc.ProcessTurn(context.Background(), in)
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if f.stt.calls != 0 {
		t.Errorf("stt called %d times for undecodable input", f.stt.calls)
	}
}

func TestNoSpeechLeavesHistoryIntact(t *testing.T) {
	f := newFixture()
	f.stt.errs = []error{speech.ErrNoSpeech}
	sess := f.sessions.GetOrCreate("s1")
	sess.AppendTurn(ports.Turn{Role: ports.SpeakerUser, Content: "earlier"})

	_, err := f.svc.ProcessTurn(context.Background(), fileInput("s1"))
	if !errors.Is(err, speech.ErrNoSpeech) {
		t.Fatalf("err = %v, want ErrNoSpeech", err)
	}

	if got := sess.Len(); got != 1 {
		t.Errorf("history = %d turns, want 1", got)
	}
	if f.stt.calls != 1 {
		t.Errorf("stt calls = %d, no-speech must not retry", f.stt.calls)
	}
	if f.dialogue.calls != 0 {
		t.Errorf("dialogue called after no-speech")
	}
}

func TestUnavailableThenSuccessRetriesOnce(t *testing.T) {
	f := newFixture()
	f.stt.errs = []error{speech.ErrServiceUnavailable, nil}

	res, err := f.svc.ProcessTurn(context.Background(), fileInput("s1"))
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if f.stt.calls != 2 {
		t.Errorf("stt calls = %d, want 2", f.stt.calls)
	}
	if res.Transcript != "apa kabar" {
		t.Errorf("transcript = %q", res.Transcript)
	}
	if f.notifier.calls != 0 {
		t.Errorf("notifier fired on a recovered retry")
	}
}

func TestUnavailableTwiceAborts(t *testing.T) {
	f := newFixture()
	f.stt.errs = []error{speech.ErrServiceUnavailable, speech.ErrServiceUnavailable}

	_, err := f.svc.ProcessTurn(context.Background(), fileInput("s1"))
	if !errors.Is(err, speech.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
	if f.stt.calls != 2 {
		t.Errorf("stt calls = %d, want exactly 2", f.stt.calls)
	}
	if f.notifier.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", f.notifier.calls)
	}
	if got := f.sessions.Get("s1").Len(); got != 0 {
		t.Errorf("history = %d turns, want 0", got)
	}
}

func TestMicCaptureDedup(t *testing.T) {
	f := newFixture()

	in := ports.TurnInput{
		SessionID: "s1",
		CaptureID: "cap-42",
		Source:    audio.SourceMic,
		Language:  lang.English,
		Audio:     toneWAV(1500),
	}

	first, err := f.svc.ProcessTurn(context.Background(), in)
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if first.Deduplicated {
		t.Fatal("first capture flagged as duplicate")
	}

	second, err := f.svc.ProcessTurn(context.Background(), in)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if !second.Deduplicated {
		t.Fatal("repeated capture not flagged as duplicate")
	}
	if second.Transcript != "" || second.Reply != "" {
		t.Errorf("duplicate produced content: %+v", second)
	}

	if f.stt.calls != 1 {
		t.Errorf("stt calls = %d, duplicate must not reach recognition", f.stt.calls)
	}
	if got := f.sessions.Get("s1").Len(); got != 2 {
		t.Errorf("history = %d turns, want 2", got)
	}

	// a new capture on the same session processes normally
	in.CaptureID = "cap-43"
	third, err := f.svc.ProcessTurn(context.Background(), in)
	if err != nil {
		t.Fatalf("third turn: %v", err)
	}
	if third.Deduplicated {
		t.Error("fresh capture flagged as duplicate")
	}
}

func TestDedupMarkerSetEvenOnFailure(t *testing.T) {
	f := newFixture()
	f.stt.errs = []error{speech.ErrNoSpeech, speech.ErrNoSpeech}

	in := ports.TurnInput{
		SessionID: "s1",
		CaptureID: "cap-1",
		Source:    audio.SourceMic,
		Language:  lang.Indonesian,
		Audio:     toneWAV(1500),
	}

	if _, err := f.svc.ProcessTurn(context.Background(), in); !errors.Is(err, speech.ErrNoSpeech) {
		t.Fatalf("err = %v, want ErrNoSpeech", err)
	}

	res, err := f.svc.ProcessTurn(context.Background(), in)
	if err != nil {
		t.Fatalf("replay of failed capture: %v", err)
	}
	if !res.Deduplicated {
		t.Error("failed capture replayed instead of deduplicated")
	}
}

func TestGenerationFailureNoHistoryMutation(t *testing.T) {
	f := newFixture()
	f.dialogue.err = &ai.GenerationError{Err: errors.New("status code: 429")}
	sess := f.sessions.GetOrCreate("s1")
	sess.AppendTurn(ports.Turn{Role: ports.SpeakerUser, Content: "earlier"})

	_, err := f.svc.ProcessTurn(context.Background(), fileInput("s1"))

	var genErr *ai.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want GenerationError", err)
	}
	if got := sess.Len(); got != 1 {
		t.Errorf("history = %d turns after failed generation, want 1", got)
	}
	if f.tts.calls != 0 {
		t.Errorf("tts called after failed generation")
	}
}

func TestSynthesisFailureKeepsTurns(t *testing.T) {
	f := newFixture()
	f.tts.err = speech.ErrSynthesis

	res, err := f.svc.ProcessTurn(context.Background(), fileInput("s1"))
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}

	if !res.SynthesisFailed {
		t.Error("SynthesisFailed not set")
	}
	if res.Audio != nil {
		t.Errorf("audio = %q, want nil", res.Audio)
	}
	if res.Transcript != "apa kabar" || res.Reply != "Baik, terima kasih!" {
		t.Errorf("text payload lost: %+v", res)
	}
	if got := f.sessions.Get("s1").Len(); got != 2 {
		t.Errorf("history = %d turns, want 2", got)
	}
	if f.notifier.calls != 1 {
		t.Errorf("notifier calls = %d, want 1", f.notifier.calls)
	}
}

func TestGeneratedSessionIDReturned(t *testing.T) {
	f := newFixture()

	res, err := f.svc.ProcessTurn(context.Background(), fileInput(""))
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if res.SessionID == "" {
		t.Fatal("empty session ID in result")
	}
	if f.sessions.Get(res.SessionID) == nil {
		t.Error("returned session ID not registered")
	}
}
