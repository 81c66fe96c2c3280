package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/zen-systems/quizforge/pkg/config"
)

func openaiTestConfig(url string) config.ProviderConfig {
	return config.ProviderConfig{
		ID:      "openai",
		Enabled: true,
		APIKey:  "test-key",
		BaseURL: url,
	}
}

func TestOpenAIAvailableIsLocal(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		apiKey  string
		want    bool
	}{
		{name: "enabled with key", enabled: true, apiKey: "k", want: true},
		{name: "disabled", enabled: false, apiKey: "k", want: false},
		{name: "missing key", enabled: true, apiKey: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewOpenAI(config.ProviderConfig{ID: "openai", Enabled: tt.enabled, APIKey: tt.apiKey})
			if got := a.Available(context.Background()); got != tt.want {
				t.Errorf("Available() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestOpenAIBearerHeaderAttachedOnce(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Header.Get("Authorization")] = true
		mu.Unlock()
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}],"usage":{"total_tokens":3}}`))
	}))
	defer srv.Close()

	a := NewOpenAI(openaiTestConfig(srv.URL))

	// Concurrent first availability checks must not corrupt the header set.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Available(context.Background())
		}()
	}
	wg.Wait()

	if _, err := a.GenerateText(context.Background(), TextRequest{Prompt: "hi"}); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || !seen["Bearer test-key"] {
		t.Fatalf("expected exactly one bearer header value, got %v", seen)
	}
}

func TestOpenAIWirePayloadOmitsUnsetFields(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}],"usage":{"total_tokens":1}}`))
	}))
	defer srv.Close()

	a := NewOpenAI(openaiTestConfig(srv.URL))
	temp := 0.7
	_, err := a.GenerateText(context.Background(), TextRequest{
		System:      "be brief",
		Prompt:      "hi",
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}

	for _, absent := range []string{"max_tokens", "top_p", "frequency_penalty", "presence_penalty", "stop"} {
		if _, ok := captured[absent]; ok {
			t.Errorf("expected %s to be omitted, got %v", absent, captured[absent])
		}
	}
	if captured["temperature"] != 0.7 {
		t.Errorf("temperature = %v, want 0.7", captured["temperature"])
	}
	msgs, ok := captured["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %v", captured["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "be brief" {
		t.Errorf("unexpected system message: %v", first)
	}
}

func TestOpenAIModelFallbackChain(t *testing.T) {
	tests := []struct {
		name         string
		override     string
		defaultModel string
		want         string
	}{
		{name: "request override wins", override: "gpt-4o", defaultModel: "gpt-4.1", want: "gpt-4o"},
		{name: "configured default", override: "", defaultModel: "gpt-4.1", want: "gpt-4.1"},
		{name: "hard-coded fallback", override: "", defaultModel: "", want: openaiDefaultModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotModel string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				json.NewDecoder(r.Body).Decode(&body)
				gotModel, _ = body["model"].(string)
				w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}],"usage":{"total_tokens":1}}`))
			}))
			defer srv.Close()

			cfg := openaiTestConfig(srv.URL)
			cfg.DefaultModel = tt.defaultModel
			a := NewOpenAI(cfg)
			if _, err := a.GenerateText(context.Background(), TextRequest{Model: tt.override, Prompt: "hi"}); err != nil {
				t.Fatalf("GenerateText: %v", err)
			}
			if gotModel != tt.want {
				t.Errorf("model = %q, want %q", gotModel, tt.want)
			}
		})
	}
}

func TestOpenAINonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	a := NewOpenAI(openaiTestConfig(srv.URL))
	_, err := a.GenerateText(context.Background(), TextRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Kind != ErrTransport || perr.Status != http.StatusUnauthorized {
		t.Errorf("got kind=%s status=%d, want transport/401", perr.Kind, perr.Status)
	}
	if perr.Provider != "OpenAI" {
		t.Errorf("provider = %q, want OpenAI", perr.Provider)
	}
}

func TestOpenAIEmptyChoicesYieldsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[],"usage":{"total_tokens":0}}`))
	}))
	defer srv.Close()

	a := NewOpenAI(openaiTestConfig(srv.URL))
	result, err := a.GenerateText(context.Background(), TextRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("expected empty result, got error: %v", err)
	}
	if result.Artifact.Content != "" {
		t.Errorf("content = %q, want empty", result.Artifact.Content)
	}
}

func TestOpenAIRetriesTransientFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"recovered"},"finish_reason":"stop"}],"usage":{"total_tokens":2}}`))
	}))
	defer srv.Close()

	cfg := openaiTestConfig(srv.URL)
	cfg.MaxRetries = 1
	a := NewOpenAI(cfg)
	result, err := a.GenerateText(context.Background(), TextRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if result.Artifact.Content != "recovered" {
		t.Errorf("content = %q, want recovered", result.Artifact.Content)
	}
}

func TestOpenAIDoesNotRetryNonTransient(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid request"}}`))
	}))
	defer srv.Close()

	cfg := openaiTestConfig(srv.URL)
	cfg.MaxRetries = 3
	a := NewOpenAI(cfg)
	if _, err := a.GenerateText(context.Background(), TextRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestOpenAICancellationPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	a := NewOpenAI(openaiTestConfig(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.GenerateText(ctx, TextRequest{Prompt: "hi"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
