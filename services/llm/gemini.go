package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// GeminiClient generates text through Google's generative-language API.
type GeminiClient struct {
	llm llms.Model
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{llm: client}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	log.Printf("[INFO] Calling Gemini with prompt of %d characters", len(prompt))

	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(0.7))
	if err != nil {
		log.Printf("[ERROR] Failed to generate Gemini response: %v", err)
		return "", fmt.Errorf("failed to generate LLM response: %w", err)
	}

	completion = strings.TrimSpace(completion)
	if completion == "" {
		log.Printf("[INFO] Gemini returned an empty completion, using fallback text")
		return FallbackResponse, nil
	}

	return completion, nil
}
