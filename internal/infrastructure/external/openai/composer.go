package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/travel-approval/internal/application/port"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds OpenAI client configuration
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Composer implements port.MessageComposer by asking a chat model to rewrite notification text
type Composer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewComposer creates a new OpenAI composer. prompts may be nil to use DefaultPrompts.
func NewComposer(cfg Config, prompts *PromptConfig, logger *zap.Logger) *Composer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	return &Composer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: cfg.Timeout,
		prompts: prompts,
		logger:  logger,
	}
}

type promptData struct {
	RecipientName string
	Title         string
	Message       string
	RequestID     int64
}

// Compose returns the rewritten message body
func (c *Composer) Compose(ctx context.Context, req port.NotificationRequest) (string, error) {
	data := promptData{
		Title:     req.Title,
		Message:   req.Message,
		RequestID: req.RequestID,
	}
	if req.Recipient != nil {
		data.RecipientName = req.Recipient.Name
	}

	prompt, err := renderTemplate(c.prompts.Notification.UserTemplate, data)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.prompts.Notification.Temperature,
		MaxTokens:   c.prompts.Notification.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.prompts.Notification.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		c.logger.Error("OpenAI API call failed", zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	c.logger.Debug("Notification composed",
		zap.Int64("request_id", req.RequestID),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return content, nil
}

var _ port.MessageComposer = (*Composer)(nil)
