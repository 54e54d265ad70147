package llmprovider

import (
	"context"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/mattxslv/phoenix/internal/domain/generation"
)

const titleInstruction = "Given a user prompt, generate a concise and informative title " +
	"that accurately describes the conversation. Consider keywords, topics, and the overall " +
	"intent of the prompt. Response in plain text format, not markdown.\n\nPrompt: "

// Config controls the generation backend connection.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client implements generation.Generator against any OpenAI-compatible chat
// completions endpoint.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

var _ generation.Generator = (*Client)(nil)

// NewClient creates a chat-completions backed generator.
func NewClient(cfg Config) *Client {
	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 75 * time.Second
	}
	apiConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:         openai.NewClientWithConfig(apiConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Complete implements generation.Generator.
func (c *Client) Complete(ctx context.Context, prompt string, history []generation.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    mapRole(msg.Role),
			Content: msg.Text,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// SummarizeTitle implements generation.Generator.
func (c *Client) SummarizeTitle(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: titleInstruction + prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func mapRole(role generation.Role) string {
	if role == generation.RoleModel {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}
