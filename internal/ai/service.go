package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"voicechat/internal/error_notificator"
	"voicechat/internal/lang"
	"voicechat/internal/ports"
)

// HistoryWindow is how many prior turns travel with each request.
const HistoryWindow = 5

const completionTimeout = 120 * time.Second

// The two persona instructions, one per language. Both pin the reply
// language and cap the answer length.
const (
	instructionEN = "You are a smart, polite, and cool AI assistant. " +
		"You MUST reply in English. " +
		"Keep your answer concise (max 2-3 sentences)."

	instructionID = "Kamu adalah asisten AI yang cerdas, sopan, dan gaul. " +
		"Kamu HARUS menjawab dalam Bahasa Indonesia. " +
		"Jawablah dengan ringkas dan padat (maksimal 2-3 kalimat)."
)

// GenerationError wraps any failure on the completion path so the
// orchestrator can tell it apart from a genuine reply. The cause never
// leaks into the transcript.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

type ChatClient interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

type AiService struct {
	client   ChatClient
	notifier error_notificator.Notificator
}

func NewAiService(client ChatClient, notifier error_notificator.Notificator) *AiService {
	return &AiService{
		client:   client,
		notifier: notifier,
	}
}

// completion error diagnostics for the admin channel
func analyzeChatError(err error) string {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "status code: 401"):
		return "Invalid Groq API key."
	case strings.Contains(msg, "status code: 404"):
		return "Model not found."
	case strings.Contains(msg, "status code: 429"):
		return "Groq rate limit exceeded."
	case strings.Contains(msg, "status code: 400") && strings.Contains(msg, "model"):
		return "Bad model identifier."
	case strings.Contains(msg, "status code: 400"):
		return "Malformed completion request."
	case strings.Contains(msg, "status code: 5"):
		return "Groq server-side failure."
	}
	return "Unclassified completion error: " + err.Error()
}

func instruction(language lang.Language) string {
	if language == lang.English {
		return instructionEN
	}
	return instructionID
}

// Reply builds the message list (system instruction, then the last
// HistoryWindow turns in original order, then the new utterance) and asks
// the model for a completion.
func (s *AiService) Reply(
	ctx context.Context,
	history []ports.Turn,
	userText string,
	language lang.Language,
) (string, error) {

	start := time.Now()

	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: instruction(language),
	})
	for _, t := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	ctxChat, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	reply, err := s.client.GetCompletion(ctxChat, messages)
	if err == nil && strings.TrimSpace(reply) == "" {
		// no choices or a blank message; committing it would record an
		// empty assistant turn and hand empty text to synthesis
		err = errors.New("model returned an empty completion")
	}
	log.Printf("[ai][%.1fs] completion done lang=%s err=%v", time.Since(start).Seconds(), language, err)

	if err != nil {
		s.notifier.Notify(ctx, err,
			fmt.Sprintf("Completion error\nModel: %s\n%v\n\n%s",
				ChatModel, err, analyzeChatError(err)))
		return "", &GenerationError{Err: err}
	}

	return reply, nil
}
