package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/agenthands/leafcheck/internal/core/model"
)

const claudeMaxTokens = 1024

type ClaudeClient struct {
	client *anthropic.Client
	model  string
	system string
}

func NewClaudeClient(apiKey, model, baseURL, system string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return &ClaudeClient{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
		system: system,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.send(ctx, anthropic.NewTextMessageContent(prompt))
}

func (c *ClaudeClient) GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error) {
	src := anthropic.NewMessageContentSource(
		anthropic.MessagesContentSourceTypeBase64,
		image.MIMEType,
		base64.StdEncoding.EncodeToString(image.Data),
	)
	return c.send(ctx,
		anthropic.NewImageMessageContent(src),
		anthropic.NewTextMessageContent(prompt),
	)
}

func (c *ClaudeClient) send(ctx context.Context, content ...anthropic.MessageContent) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: c.system,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: content,
			},
		},
		MaxTokens: claudeMaxTokens,
	})
	if err != nil {
		return "", err
	}

	for _, part := range resp.Content {
		if part.Text != nil {
			return strings.TrimSpace(*part.Text), nil
		}
	}
	return "", fmt.Errorf("no response content")
}

func (c *ClaudeClient) Close() error { return nil }
