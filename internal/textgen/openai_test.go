package textgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIClient_Generate(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"ok": true}`}},
			},
			"usage": map[string]any{"total_tokens": 42},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-3.5-turbo", server.URL)
	if !client.Available() {
		t.Fatal("client with key should be available")
	}

	result, err := client.Generate(context.Background(), Request{
		System:      "system prompt",
		User:        "user content",
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if result.Text != `{"ok": true}` {
		t.Errorf("Text = %q", result.Text)
	}
	if result.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d, want 42", result.TokensUsed)
	}
	if captured.Model != "gpt-3.5-turbo" {
		t.Errorf("Model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "user content" {
		t.Errorf("unexpected messages: %+v", captured.Messages)
	}
}

func TestOpenAIClient_GenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-3.5-turbo", server.URL)
	if _, err := client.Generate(context.Background(), Request{User: "hi"}); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestNew(t *testing.T) {
	if gen := New("", "gpt-3.5-turbo", ""); gen.Available() {
		t.Error("generator without key should be unavailable")
	}
	if _, err := (Disabled{}).Generate(context.Background(), Request{}); err == nil {
		t.Error("Disabled.Generate should fail")
	}
	if gen := New("key", "gpt-3.5-turbo", ""); !gen.Available() {
		t.Error("generator with key should be available")
	}
}
