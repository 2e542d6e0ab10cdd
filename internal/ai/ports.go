package ai

import (
	"context"

	"voicechat/internal/lang"
	"voicechat/internal/ports"
)

type Service interface {
	// Reply generates the assistant's answer to the new user utterance.
	// history is the caller's view of the conversation so far; only the
	// most recent turns inside the window are sent upstream.
	Reply(ctx context.Context, history []ports.Turn, userText string, language lang.Language) (string, error)
}
