package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zen-systems/quizforge/pkg/artifact"
	"github.com/zen-systems/quizforge/pkg/config"
)

const (
	openaiBaseURL      = "https://api.openai.com/v1"
	openaiDefaultModel = "gpt-4o-mini"
)

// OpenAI is the token-authenticated text adapter for OpenAI-compatible chat
// completion backends. A single long-lived HTTP client serves every request
// the adapter ever makes; the bearer credential is attached to it lazily on
// the first availability check.
type OpenAI struct {
	identity Identity
	cfg      config.ProviderConfig
	baseURL  string

	client   *http.Client
	authOnce sync.Once
}

// chatRequest is the OpenAI-compatible chat completions payload. Optional
// sampling fields are pointers so unset values are omitted from the wire
// rather than sent as nulls or zeros.
type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        *int          `json:"max_tokens,omitempty"`
	Temperature      *float64      `json:"temperature,omitempty"`
	TopP             *float64      `json:"top_p,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	Stop             []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates the OpenAI text adapter from its provider configuration.
func NewOpenAI(cfg config.ProviderConfig) *OpenAI {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = openaiBaseURL
	}
	return &OpenAI{
		identity: Identity{ID: cfg.ID, DisplayName: "OpenAI", Kind: KindText},
		cfg:      cfg,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

// ID returns the provider identifier.
func (a *OpenAI) ID() string { return a.identity.ID }

// DisplayName returns the human-readable provider name.
func (a *OpenAI) DisplayName() string { return a.identity.DisplayName }

// Kind returns KindText.
func (a *OpenAI) Kind() Kind { return a.identity.Kind }

// Capabilities returns the adapter's declared capability flags.
func (a *OpenAI) Capabilities() Capabilities {
	return Capabilities{
		Streaming:        false,
		Vision:           true,
		FunctionCalling:  true,
		MaxContextTokens: 128000,
		Extra:            map[string]string{"api": "chat_completions"},
	}
}

// Models returns the advertised model list.
func (a *OpenAI) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", Priority: 100},
		{ID: "gpt-4o", DisplayName: "GPT-4o", Priority: 90},
	}
}

// Available reports whether the adapter is enabled and has a credential. The
// check is purely local and performs no network call. It also attaches the
// bearer header to the shared client if not already present; the attachment
// is idempotent and safe under concurrent first calls.
func (a *OpenAI) Available(_ context.Context) bool {
	if !a.cfg.Enabled || a.cfg.APIKey == "" {
		return false
	}
	a.attachAuth()
	return true
}

// attachAuth installs the bearer-injecting transport on the shared client.
func (a *OpenAI) attachAuth() {
	a.authOnce.Do(func() {
		base := a.client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		a.client.Transport = &bearerTransport{token: a.cfg.APIKey, base: base}
	})
}

// bearerTransport injects the Authorization header into every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}

// GenerateText sends a chat completion request. Transport-class failures
// (connection errors, 429, 5xx) are retried up to the configured MaxRetries
// with exponential backoff; all other failures surface immediately.
func (a *OpenAI) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	if !a.cfg.Enabled || a.cfg.APIKey == "" {
		return nil, Errf(ErrConfiguration, a.DisplayName(), "missing API key")
	}
	a.attachAuth()

	model := a.resolveModel(req.Model)

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload := chatRequest{
		Model:            model,
		Messages:         messages,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Stop:             req.Stop,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: ErrProtocol, Provider: a.DisplayName(), Message: "failed to marshal request", Err: err}
	}

	var lastErr error
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		result, retryAfter, err := a.doRequest(ctx, body, model, req.Prompt)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !IsTransient(err) || attempt == a.cfg.MaxRetries {
			break
		}
		wait := retryAfter
		if wait <= 0 {
			wait = computeBackoff(attempt)
		}
		if err := sleepWithContext(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (a *OpenAI) doRequest(ctx context.Context, body []byte, model, prompt string) (*TextResult, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, 0, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, 0, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var parsed chatResponse
		msg := resp.Status
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), &Error{
			Kind:     ErrTransport,
			Provider: a.DisplayName(),
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("status=%d: %s", resp.StatusCode, msg),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, 0, &Error{Kind: ErrProtocol, Provider: a.DisplayName(), Message: "failed to parse response", Err: err}
	}

	// A success status with no extractable content yields an empty result,
	// not a failure.
	var content, finishReason string
	if len(parsed.Choices) > 0 {
		content = parsed.Choices[0].Message.Content
		finishReason = parsed.Choices[0].FinishReason
	}

	return &TextResult{
		Artifact:     artifact.New(content, a.ID(), model, prompt),
		FinishReason: finishReason,
		Usage:        Usage{TotalTokens: parsed.Usage.TotalTokens},
	}, 0, nil
}

// resolveModel picks the request override, then the configured default, then
// the hard-coded fallback, in that order.
func (a *OpenAI) resolveModel(override string) string {
	if override != "" {
		return override
	}
	if a.cfg.DefaultModel != "" {
		return a.cfg.DefaultModel
	}
	return openaiDefaultModel
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
