package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ErrUnavailable is returned when Generate is called on a generator
// whose backend is not configured.
var ErrUnavailable = errors.New("text generation backend not configured")

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAIClient builds a client for the given API key and model.
// The base URL can be overridden for compatible backends and tests.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIClient{
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// New returns the configured Generator: an OpenAI client when an API
// key is present, the Disabled generator otherwise. Construct once at
// process start and pass the result down; availability never changes
// afterwards.
func New(apiKey, model, baseURL string) Generator {
	if apiKey == "" {
		return Disabled{}
	}
	return NewOpenAIClient(apiKey, model, baseURL)
}

// Available reports true; a client is only constructed with a key.
func (c *OpenAIClient) Available() bool { return true }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate performs one blocking chat-completions call.
func (c *OpenAIClient) Generate(ctx context.Context, genReq Request) (*Result, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: genReq.System},
			{Role: "user", Content: genReq.User},
		},
		Temperature: genReq.Temperature,
		MaxTokens:   genReq.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("chat completion failed: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return &Result{
		Text:       parsed.Choices[0].Message.Content,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}
