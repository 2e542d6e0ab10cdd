package ports

import (
	"context"

	"voicechat/internal/audio"
	"voicechat/internal/lang"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one utterance in the conversation history. Immutable once
// appended; insertion order is the conversational order.
type Turn struct {
	Role    Speaker `json:"role"`
	Content string  `json:"content"`
}

// TurnInput is everything one input event carries into the pipeline.
type TurnInput struct {
	SessionID string
	CaptureID string // mic captures only, used for dedup
	Source    audio.SourceKind
	Language  lang.Language
	Audio     []byte
	Filename  string
}

// TurnResult is what a processed turn hands back to the delivery layer.
type TurnResult struct {
	SessionID       string `json:"session_id"`
	Transcript      string `json:"transcript"`
	Reply           string `json:"reply"`
	Audio           []byte `json:"-"` // MP3, base64-encoded by the handler
	SynthesisFailed bool   `json:"synthesis_failed"`
	Deduplicated    bool   `json:"deduplicated"`
}

// TurnService drives one full turn end-to-end.
type TurnService interface {
	ProcessTurn(ctx context.Context, in TurnInput) (*TurnResult, error)
}
