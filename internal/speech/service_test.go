package speech

import (
	"context"
	"errors"
	"math"
	"testing"

	"voicechat/internal/audio"
)

type fakeSTT struct {
	calls  int
	locale string
	got    *audio.Buffer
	text   string
	err    error
}

func (f *fakeSTT) Transcribe(ctx context.Context, buf *audio.Buffer, locale string) (string, error) {
	f.calls++
	f.locale = locale
	f.got = buf
	return f.text, f.err
}

// toneBuffer builds ms milliseconds of audio: leading silence then a tone.
func toneBuffer(silenceMs, toneMs int) *audio.Buffer {
	rate := audio.CanonicalRate
	samples := make([]int16, rate*(silenceMs+toneMs)/1000)
	start := rate * silenceMs / 1000
	for i := start; i < len(samples); i++ {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*300*float64(i)/float64(rate)))
	}
	return &audio.Buffer{Samples: samples, SampleRate: rate}
}

func TestTranscribeMicCalibration(t *testing.T) {
	stt := &fakeSTT{text: "halo dunia"}
	svc := NewService(stt, nil)

	buf := toneBuffer(500, 1500)
	text, err := svc.Transcribe(context.Background(), buf, "id-ID", audio.SourceMic)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "halo dunia" {
		t.Errorf("text = %q", text)
	}
	if stt.locale != "id-ID" {
		t.Errorf("locale = %q", stt.locale)
	}

	// the calibration window must not reach the recognition service
	wantMs := 1500
	if got := stt.got.DurationMs(); got != wantMs {
		t.Errorf("recognition window = %dms, want %dms", got, wantMs)
	}
}

func TestTranscribeMicSilenceRejectedLocally(t *testing.T) {
	stt := &fakeSTT{text: "should not be called"}
	svc := NewService(stt, nil)

	buf := toneBuffer(2000, 0) // all silence
	_, err := svc.Transcribe(context.Background(), buf, "en-US", audio.SourceMic)
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("err = %v, want ErrNoSpeech", err)
	}
	if stt.calls != 0 {
		t.Errorf("recognition service called %d times for silence", stt.calls)
	}
}

func TestTranscribeMicSpeechFromStart(t *testing.T) {
	// speech starting inside the calibration window must still go through
	stt := &fakeSTT{text: "langsung bicara"}
	svc := NewService(stt, nil)

	buf := toneBuffer(0, 2000)
	if _, err := svc.Transcribe(context.Background(), buf, "id-ID", audio.SourceMic); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if stt.calls != 1 {
		t.Errorf("stt calls = %d, want 1", stt.calls)
	}
}

func TestTranscribeFileSkipsCalibration(t *testing.T) {
	stt := &fakeSTT{text: "from a file"}
	svc := NewService(stt, nil)

	buf := toneBuffer(0, 1000)
	if _, err := svc.Transcribe(context.Background(), buf, "en-US", audio.SourceFile); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := stt.got.DurationMs(); got != 1000 {
		t.Errorf("recognition window = %dms, want the full 1000ms", got)
	}
}

func TestTranscribeEmptyBuffer(t *testing.T) {
	svc := NewService(&fakeSTT{}, nil)

	_, err := svc.Transcribe(context.Background(), &audio.Buffer{SampleRate: audio.CanonicalRate}, "id-ID", audio.SourceFile)
	if !errors.Is(err, ErrNoSpeech) {
		t.Errorf("err = %v, want ErrNoSpeech", err)
	}
}
