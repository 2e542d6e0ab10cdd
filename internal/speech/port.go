package speech

import (
	"context"
	"errors"

	"voicechat/internal/audio"
)

// ErrNoSpeech means the clip carried no intelligible speech. User-caused
// and recoverable: the turn is dropped with a notice, nothing else happens.
var ErrNoSpeech = errors.New("no speech detected")

// ErrServiceUnavailable means the recognition service could not be reached
// or answered with a server failure.
var ErrServiceUnavailable = errors.New("speech service unavailable")

// ErrSynthesis means text-to-speech failed. Non-fatal for the transcript.
var ErrSynthesis = errors.New("speech synthesis failed")

type STTClient interface {
	Transcribe(ctx context.Context, buf *audio.Buffer, locale string) (string, error) // voice -> text
}

type TTSClient interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error) // text -> MP3 bytes
}
