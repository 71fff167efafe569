package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeClient generates text through the Anthropic API. Selected with
// AI_PROVIDER=claude.
type ClaudeClient struct {
	client *anthropic.Client
}

func NewClaudeClient(apiKey string) *ClaudeClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ClaudeClient{client: &client}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	log.Printf("[INFO] Calling Anthropic with prompt of %d characters", len(prompt))

	response, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude4Sonnet20250514,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		log.Printf("[ERROR] Failed to generate Anthropic response: %v", err)
		return "", fmt.Errorf("failed to generate LLM response: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	completion := strings.TrimSpace(text.String())
	if completion == "" {
		log.Printf("[INFO] Anthropic returned an empty completion, using fallback text")
		return FallbackResponse, nil
	}

	return completion, nil
}
