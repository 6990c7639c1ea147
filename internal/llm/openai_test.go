package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider("test-key", srv.URL, "test-model", map[string]string{"X-Title": "relaybot"})
}

func TestOpenAIChatReturnsFirstChoice(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Title") != "relaybot" {
			t.Errorf("missing extra header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "first"}, "finish_reason": "stop"},
				{"index": 1, "message": {"role": "assistant", "content": "second"}, "finish_reason": "stop"}
			],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
		}`))
	})

	out, err := Complete(context.Background(), p, "be nice", "hello", Options{MaxTokens: 2000, Temperature: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if out != "first" {
		t.Fatalf("content = %q, want first", out)
	}
	if got.Model != "test-model" || got.MaxTokens != 2000 || got.Temperature != 0.5 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 2 ||
		got.Messages[0].Role != RoleSystem || got.Messages[0].Content != "be nice" ||
		got.Messages[1].Role != RoleUser || got.Messages[1].Content != "hello" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestOpenAIChatErrorStatus(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	})

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	var rse *RemoteServiceError
	if !errors.As(err, &rse) {
		t.Fatalf("err = %v, want RemoteServiceError", err)
	}
	if rse.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rse.StatusCode)
	}
}

func TestOpenAIChatNoChoices(t *testing.T) {
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "cmpl-2", "object": "chat.completion", "choices": []}`))
	})

	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !errors.Is(err, ErrNoChoices) {
		t.Fatalf("err = %v, want ErrNoChoices", err)
	}
}

func TestOpenAIChatUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewOpenAIProvider("k", url, "m", nil)
	_, err := p.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	var rse *RemoteServiceError
	if !errors.As(err, &rse) || rse.StatusCode != 0 {
		t.Fatalf("err = %v, want RemoteServiceError without status", err)
	}
}

func TestOpenAIChatSendsZeroTemperature(t *testing.T) {
	var body map[string]any
	p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "cmpl-3", "object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]}`))
	})

	if _, err := Complete(context.Background(), p, "sys", "hi", Options{Temperature: 0}); err != nil {
		t.Fatal(err)
	}
	temp, ok := body["temperature"].(float64)
	if !ok {
		t.Fatalf("request has no temperature: %v", body)
	}
	if temp <= 0 || temp > 1e-6 {
		t.Fatalf("temperature = %v, want a value just above zero", temp)
	}
}
