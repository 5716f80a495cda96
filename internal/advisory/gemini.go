package advisory

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// classifyTemperature keeps structured output deterministic.
const classifyTemperature = 0.1

// Config holds Gemini connection settings.
type Config struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// DefaultConfig returns sensible defaults; the API key comes from the
// environment.
func DefaultConfig() Config {
	return Config{Model: "gemini-2.0-flash"}
}

// GeminiClient implements Client on the Google GenAI API.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewGeminiClient creates a Gemini-backed advisory client.
func NewGeminiClient(ctx context.Context, cfg Config, log *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig().Model
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		log:    log.Named("advisory"),
	}, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(temperature),
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := resp.Text()
	if IsUnusable(text) {
		return "", fmt.Errorf("model returned unusable response")
	}
	c.log.Debug("advisory response",
		zap.Int("prompt_len", len(prompt)),
		zap.Int("response_len", len(text)))
	return text, nil
}

// Classify runs prompt at the fixed classification temperature.
func (c *GeminiClient) Classify(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, classifyTemperature)
}

// Complete runs prompt at the caller's temperature.
func (c *GeminiClient) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	return c.generate(ctx, prompt, temperature)
}

// Close releases the underlying client. The genai client holds no
// resources that require explicit release.
func (c *GeminiClient) Close() error {
	return nil
}
