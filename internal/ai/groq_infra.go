package ai

import (
	"context"
	"log"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// ChatModel is the fixed completion model for every turn.
const ChatModel = "llama-3.1-8b-instant"

const groqBaseURL = "https://api.groq.com/openai/v1"

type GroqClient struct {
	client *openai.Client
}

// NewGroqClient builds the chat client. A missing GROQ_API_KEY is fatal:
// without it the assistant cannot answer anything at all.
func NewGroqClient() *GroqClient {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		log.Fatal("GROQ_API_KEY not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL

	return &GroqClient{
		client: openai.NewClientWithConfig(cfg),
	}
}

func (c *GroqClient) GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    ChatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
