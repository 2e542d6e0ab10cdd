package speech

import (
	"context"

	"voicechat/internal/audio"
)

// === Unified service (both STT and TTS) ===

type Service struct {
	stt STTClient
	tts TTSClient
}

func NewService(stt STTClient, tts TTSClient) *Service {
	return &Service{
		stt: stt,
		tts: tts,
	}
}

// Transcribe recognizes speech in a canonical waveform. Mic captures first
// give up their leading CalibrationWindowMs to ambient-noise measurement;
// clips that never rise above the measured floor are rejected locally as
// ErrNoSpeech without a network round trip. File uploads skip calibration.
func (s *Service) Transcribe(ctx context.Context, buf *audio.Buffer, locale string, kind audio.SourceKind) (string, error) {
	if buf.Empty() {
		return "", ErrNoSpeech
	}

	if kind == audio.SourceMic {
		rest, ambient := calibrate(buf, CalibrationWindowMs)
		if !hasSpeech(rest, ambient) {
			return "", ErrNoSpeech
		}
		buf = rest
	}

	return s.stt.Transcribe(ctx, buf, locale)
}

func (s *Service) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return s.tts.Synthesize(ctx, text, voice)
}
