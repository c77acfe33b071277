package llm

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// DefaultOpenRouterURL is the OpenRouter chat completions endpoint
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterClient implements Client for the OpenRouter chat completions API
type OpenRouterClient struct {
	http   *resty.Client
	config *Config
	url    string
}

// NewOpenRouterClient creates a new OpenRouter client
func NewOpenRouterClient(config *Config, apiKey string) (*OpenRouterClient, error) {
	if apiKey == "" {
		return nil, &APICallError{Message: "API key is required"}
	}
	url := config.BaseURL
	if url == "" {
		url = DefaultOpenRouterURL
	}
	client := resty.New().
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")
	return &OpenRouterClient{http: client, config: config, url: url}, nil
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *OpenRouterClient) complete(ctx context.Context, prompt string, tier ModelTier, jsonMode bool) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	body := map[string]any{
		"model":       modelName,
		"temperature": 0.1,
		"messages":    []openRouterMessage{{Role: "user", Content: prompt}},
	}
	if jsonMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.url)
	if err != nil {
		return "", &APICallError{Message: "request to OpenRouter failed", Cause: err}
	}
	if resp.IsError() {
		msg := gjson.Get(resp.String(), "error.message").String()
		if msg == "" {
			msg = resp.Status()
		}
		return "", &APICallError{Message: msg, StatusCode: resp.StatusCode()}
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return "", &ResponseError{Message: "no content in response"}
	}
	return text, nil
}

// GenerateContent generates text content using the specified model tier
func (c *OpenRouterClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.complete(ctx, prompt, tier, false)
}

// GenerateJSON generates JSON content using the specified model tier
func (c *OpenRouterClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.complete(ctx, prompt, tier, true)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *OpenRouterClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no resources that need releasing
func (c *OpenRouterClient) Close() error {
	return nil
}
