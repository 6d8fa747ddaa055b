package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chime/internal/services/anthropic"
)

func TestCompleteSendsExpectedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("unexpected api key header: %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("unexpected version header: %q", got)
		}
		var payload struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    string `json:"system"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Model != "claude-3-5-haiku-20241022" {
			t.Errorf("unexpected model: %q", payload.Model)
		}
		if payload.MaxTokens <= 0 {
			t.Errorf("expected positive max_tokens, got %d", payload.MaxTokens)
		}
		if payload.System != "be brief" {
			t.Errorf("unexpected system prompt: %q", payload.System)
		}
		if len(payload.Messages) != 1 || payload.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", payload.Messages)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"  Done and dusted.  "}]}`))
	}))
	defer server.Close()

	client := anthropic.NewClient("secret", "", anthropic.WithBaseURL(server.URL))
	got, err := client.Complete(context.Background(), "be brief", "summarize")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "Done and dusted." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestCompleteSkipsNonTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"thinking","text":"hmm"},{"type":"text","text":"answer"}]}`))
	}))
	defer server.Close()

	client := anthropic.NewClient("key", "", anthropic.WithBaseURL(server.URL))
	got, err := client.Complete(context.Background(), "", "question")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "answer" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestCompleteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`))
	}))
	defer server.Close()

	client := anthropic.NewClient("key", "", anthropic.WithBaseURL(server.URL))
	_, err := client.Complete(context.Background(), "", "question")
	if err == nil {
		t.Fatal("expected error for 400")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "max_tokens required") {
		t.Fatalf("expected status and message in error, got %v", err)
	}
}

func TestCompleteRequiresCredentialsAndPrompt(t *testing.T) {
	client := anthropic.NewClient("", "")
	if client.HasCredentials() {
		t.Fatal("expected no credentials")
	}
	if _, err := client.Complete(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error without api key")
	}

	withKey := anthropic.NewClient("key", "custom-model")
	if withKey.Model() != "custom-model" {
		t.Fatalf("unexpected model: %q", withKey.Model())
	}
	if _, err := withKey.Complete(context.Background(), "sys", "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := anthropic.NewClient("key", "", anthropic.WithBaseURL(server.URL))
	if _, err := client.Complete(context.Background(), "", "question"); err == nil {
		t.Fatal("expected error for empty content")
	}
}
