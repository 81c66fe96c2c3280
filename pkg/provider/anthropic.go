package provider

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/zen-systems/quizforge/pkg/artifact"
	"github.com/zen-systems/quizforge/pkg/config"
)

const anthropicDefaultModel = "claude-sonnet-4-20250514"

// Anthropic is a token-authenticated text adapter for Claude models, built on
// the official SDK.
type Anthropic struct {
	identity Identity
	cfg      config.ProviderConfig
	client   anthropic.Client
}

// NewAnthropic creates the Anthropic text adapter from its provider
// configuration.
func NewAnthropic(cfg config.ProviderConfig) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Anthropic{
		identity: Identity{ID: cfg.ID, DisplayName: "Anthropic", Kind: KindText},
		cfg:      cfg,
		client:   anthropic.NewClient(opts...),
	}
}

// ID returns the provider identifier.
func (a *Anthropic) ID() string { return a.identity.ID }

// DisplayName returns the human-readable provider name.
func (a *Anthropic) DisplayName() string { return a.identity.DisplayName }

// Kind returns KindText.
func (a *Anthropic) Kind() Kind { return a.identity.Kind }

// Capabilities returns the adapter's declared capability flags.
func (a *Anthropic) Capabilities() Capabilities {
	return Capabilities{
		Streaming:        false,
		Vision:           true,
		FunctionCalling:  true,
		MaxContextTokens: 200000,
	}
}

// Models returns the advertised model list.
func (a *Anthropic) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4", Priority: 90},
		{ID: "claude-opus-4-20250514", DisplayName: "Claude Opus 4", Priority: 80},
	}
}

// Available reports whether the adapter is enabled and has a credential; the
// check is local and performs no network call.
func (a *Anthropic) Available(_ context.Context) bool {
	return a.cfg.Enabled && a.cfg.APIKey != ""
}

// GenerateText sends a prompt to Claude.
func (a *Anthropic) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	if !a.cfg.Enabled || a.cfg.APIKey == "" {
		return nil, Errf(ErrConfiguration, a.DisplayName(), "missing API key")
	}

	model := req.Model
	if model == "" {
		model = a.cfg.DefaultModel
	}
	if model == "" {
		model = anthropicDefaultModel
	}

	maxTokens := int64(4096)
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(*req.TopP)
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "API error", Err: err}
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &TextResult{
		Artifact:     artifact.New(content, a.ID(), model, req.Prompt),
		FinishReason: string(resp.StopReason),
		Usage:        Usage{TotalTokens: int(resp.Usage.InputTokens + resp.Usage.OutputTokens)},
	}, nil
}
