package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"voicechat/internal/ai"
	"voicechat/internal/audio"
	"voicechat/internal/error_notificator"
	"voicechat/internal/metrics"
	"voicechat/internal/ports"
	"voicechat/internal/session"
	"voicechat/internal/speech"
)

// ErrEmptyAudio signals an input event that carried no audio at all. The
// delivery layer treats it as a bad request, nothing is processed.
var ErrEmptyAudio = errors.New("empty audio input")

const transcribeTimeout = 30 * time.Second

type turnService struct {
	sessions *session.Manager
	speech   *speech.Service
	dialogue ai.Service
	archive  ports.TurnArchive // nil when DATABASE_URL is not set
	clips    ports.ClipStore   // nil when S3 is not configured
	notifier error_notificator.Notificator
	metrics  *metrics.Metrics
}

func NewTurnService(
	sessions *session.Manager,
	speechSvc *speech.Service,
	dialogue ai.Service,
	archive ports.TurnArchive,
	clips ports.ClipStore,
	notifier error_notificator.Notificator,
	m *metrics.Metrics,
) ports.TurnService {
	return &turnService{
		sessions: sessions,
		speech:   speechSvc,
		dialogue: dialogue,
		archive:  archive,
		clips:    clips,
		notifier: notifier,
		metrics:  m,
	}
}

// ProcessTurn drives one full turn: normalize, transcribe, generate,
// commit the user/assistant pair, synthesize. History is only mutated
// after generation succeeds, so every abort leaves the session exactly as
// it was. Turns on one session run strictly one at a time.
func (s *turnService) ProcessTurn(ctx context.Context, in ports.TurnInput) (*ports.TurnResult, error) {
	if len(in.Audio) == 0 {
		return nil, ErrEmptyAudio
	}

	sess := s.sessions.GetOrCreate(in.SessionID)
	sess.BeginTurn()
	defer sess.EndTurn()

	s.metrics.IncTurnsStarted()
	log.Printf("[turn] start session=%s source=%s lang=%s bytes=%d",
		sess.ID(), in.Source, in.Language, len(in.Audio))

	// mic captures: same capture identity twice means the UI re-fired on
	// an event we already handled
	if in.Source == audio.SourceMic && in.CaptureID != "" {
		if sess.LastCapture() == in.CaptureID {
			s.metrics.IncTurnsDeduplicated()
			log.Printf("[turn] dedup session=%s capture=%s", sess.ID(), in.CaptureID)
			return &ports.TurnResult{SessionID: sess.ID(), Deduplicated: true}, nil
		}
		sess.SetLastCapture(in.CaptureID)
	}

	stageStart := time.Now()
	buf, err := audio.Normalize(in.Audio, in.Filename, in.Source)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStage("normalize", stageStart)

	if in.Source == audio.SourceFile && s.clips != nil {
		s.archiveClip(sess.ID(), in.Filename, in.Audio)
	}

	stageStart = time.Now()
	transcript, err := s.transcribe(ctx, buf, in)
	s.metrics.ObserveStage("transcribe", stageStart)
	if err != nil {
		return nil, err
	}
	log.Printf("[turn] transcribed session=%s: %q", sess.ID(), transcript)

	stageStart = time.Now()
	reply, err := s.dialogue.Reply(ctx, sess.RecentTurns(ai.HistoryWindow), transcript, in.Language)
	s.metrics.ObserveStage("generate", stageStart)
	if err != nil {
		s.metrics.IncGenerationFailure()
		return nil, err
	}
	log.Printf("[turn] reply session=%s: %q", sess.ID(), reply)

	// commit the pair; from here the turn counts as recorded
	userTurn := ports.Turn{Role: ports.SpeakerUser, Content: transcript}
	assistantTurn := ports.Turn{Role: ports.SpeakerAssistant, Content: reply}
	sess.AppendTurn(userTurn)
	sess.AppendTurn(assistantTurn)
	s.metrics.IncTurnsCompleted()
	s.archiveTurns(sess.ID(), userTurn, assistantTurn)

	result := &ports.TurnResult{
		SessionID:  sess.ID(),
		Transcript: transcript,
		Reply:      reply,
	}

	stageStart = time.Now()
	voice, err := s.speech.Synthesize(ctx, reply, in.Language.Voice())
	s.metrics.ObserveStage("synthesize", stageStart)
	if err != nil {
		// the transcript entry stays; the client just gets no audio
		s.metrics.IncSynthesisFailure()
		s.notifier.Notify(ctx, err, fmt.Sprintf("Synthesis failed: session=%s lang=%s", sess.ID(), in.Language))
		log.Printf("[turn] synth fail session=%s err=%v", sess.ID(), err)
		result.SynthesisFailed = true
		return result, nil
	}

	result.Audio = voice
	log.Printf("[turn] done session=%s", sess.ID())
	return result, nil
}

// transcribe runs recognition with a single bounded retry when the service
// is unreachable. No-speech results are final on the first answer.
func (s *turnService) transcribe(ctx context.Context, buf *audio.Buffer, in ports.TurnInput) (string, error) {
	locale := in.Language.Locale()

	text, err := s.transcribeOnce(ctx, buf, locale, in.Source)
	if errors.Is(err, speech.ErrServiceUnavailable) {
		s.metrics.IncTranscriptionRetry()
		log.Printf("[turn] transcription unavailable, retrying once: %v", err)
		text, err = s.transcribeOnce(ctx, buf, locale, in.Source)
	}

	switch {
	case errors.Is(err, speech.ErrNoSpeech):
		s.metrics.IncTranscriptionFailure("no_speech")
		return "", err
	case errors.Is(err, speech.ErrServiceUnavailable):
		s.metrics.IncTranscriptionFailure("unavailable")
		s.notifier.Notify(ctx, err, "Transcription service unreachable after retry")
		return "", err
	case err != nil:
		s.metrics.IncTranscriptionFailure("other")
		return "", err
	}
	return text, nil
}

func (s *turnService) transcribeOnce(ctx context.Context, buf *audio.Buffer, locale string, kind audio.SourceKind) (string, error) {
	ctxSTT, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()
	return s.speech.Transcribe(ctxSTT, buf, locale, kind)
}

// archiveTurns writes the committed pair to Postgres, best effort.
func (s *turnService) archiveTurns(sessionID string, turns ...ports.Turn) {
	if s.archive == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, t := range turns {
			if _, err := s.archive.SaveTurn(ctx, sessionID, t); err != nil {
				log.Printf("[turn] archive fail session=%s role=%s err=%v", sessionID, t.Role, err)
				return
			}
		}
	}()
}

// archiveClip stores the original upload bytes to S3, best effort.
func (s *turnService) archiveClip(sessionID, filename string, raw []byte) {
	data := make([]byte, len(raw))
	copy(data, raw)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		key := s.clips.ObjectKey(sessionID, filename)
		if _, err := s.clips.SaveClip(ctx, key, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
			log.Printf("[turn] clip archive fail session=%s key=%s err=%v", sessionID, key, err)
		}
	}()
}
