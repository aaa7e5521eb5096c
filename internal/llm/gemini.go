package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/agenthands/leafcheck/internal/core/model"
)

type GeminiClient struct {
	client *genai.Client
	model  string
	system string
}

func NewGeminiClient(ctx context.Context, apiKey, model, system string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  model,
		system: system,
	}, nil
}

func (c *GeminiClient) generativeModel() *genai.GenerativeModel {
	m := c.client.GenerativeModel(c.model)
	if c.system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(c.system)}}
	}
	return m
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generativeModel().GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return geminiText(resp)
}

func (c *GeminiClient) GenerateWithImage(ctx context.Context, prompt string, image model.Image) (string, error) {
	resp, err := c.generativeModel().GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: image.MIMEType, Data: image.Data},
	)
	if err != nil {
		return "", err
	}
	return geminiText(resp)
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// geminiText joins the text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates or content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in response")
	}
	return strings.TrimSpace(sb.String()), nil
}
