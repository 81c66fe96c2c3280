package provider

import (
	"context"

	"google.golang.org/genai"

	"github.com/zen-systems/quizforge/pkg/artifact"
	"github.com/zen-systems/quizforge/pkg/config"
)

const googleDefaultModel = "gemini-2.0-flash"

// Google is a token-authenticated text adapter for Gemini models, built on
// the official SDK.
type Google struct {
	identity Identity
	cfg      config.ProviderConfig
	client   *genai.Client
}

// NewGoogle creates the Google text adapter from its provider configuration.
// Client construction only fails on invalid options, not on network state.
func NewGoogle(cfg config.ProviderConfig) (*Google, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, Errf(ErrConfiguration, "Google", "failed to create client: %v", err)
	}
	return &Google{
		identity: Identity{ID: cfg.ID, DisplayName: "Google", Kind: KindText},
		cfg:      cfg,
		client:   client,
	}, nil
}

// ID returns the provider identifier.
func (a *Google) ID() string { return a.identity.ID }

// DisplayName returns the human-readable provider name.
func (a *Google) DisplayName() string { return a.identity.DisplayName }

// Kind returns KindText.
func (a *Google) Kind() Kind { return a.identity.Kind }

// Capabilities returns the adapter's declared capability flags.
func (a *Google) Capabilities() Capabilities {
	return Capabilities{
		Streaming:        false,
		Vision:           true,
		FunctionCalling:  true,
		MaxContextTokens: 1000000,
	}
}

// Models returns the advertised model list.
func (a *Google) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash", Priority: 85},
		{ID: "gemini-2.0-pro", DisplayName: "Gemini 2.0 Pro", Priority: 75},
	}
}

// Available reports whether the adapter is enabled and has a credential; the
// check is local and performs no network call.
func (a *Google) Available(_ context.Context) bool {
	return a.cfg.Enabled && a.cfg.APIKey != ""
}

// GenerateText sends a prompt to Gemini.
func (a *Google) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	if !a.cfg.Enabled || a.cfg.APIKey == "" {
		return nil, Errf(ErrConfiguration, a.DisplayName(), "missing API key")
	}

	model := req.Model
	if model == "" {
		model = a.cfg.DefaultModel
	}
	if model == "" {
		model = googleDefaultModel
	}

	var genCfg *genai.GenerateContentConfig
	if req.System != "" || req.MaxTokens != nil || req.Temperature != nil || req.TopP != nil || len(req.Stop) > 0 {
		genCfg = &genai.GenerateContentConfig{}
		if req.System != "" {
			genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
		}
		if req.MaxTokens != nil {
			genCfg.MaxOutputTokens = int32(*req.MaxTokens)
		}
		if req.Temperature != nil {
			genCfg.Temperature = genai.Ptr(float32(*req.Temperature))
		}
		if req.TopP != nil {
			genCfg.TopP = genai.Ptr(float32(*req.TopP))
		}
		if len(req.Stop) > 0 {
			genCfg.StopSequences = req.Stop
		}
	}

	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "API error", Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, Errf(ErrProtocol, a.DisplayName(), "no candidates returned")
	}

	var content string
	var finishReason string
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}
	finishReason = string(candidate.FinishReason)

	var total int
	if resp.UsageMetadata != nil {
		total = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &TextResult{
		Artifact:     artifact.New(content, a.ID(), model, req.Prompt),
		FinishReason: finishReason,
		Usage:        Usage{TotalTokens: total},
	}, nil
}
