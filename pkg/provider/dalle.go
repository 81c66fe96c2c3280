package provider

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zen-systems/quizforge/pkg/artifact"
	"github.com/zen-systems/quizforge/pkg/config"
)

const dalleDefaultModel = "dall-e-3"

// DallE is a token-authenticated image adapter for the OpenAI Images API,
// built on the official SDK. It gives the image kind a cloud-hosted
// alternative to the locally hosted session-based backend.
type DallE struct {
	identity Identity
	cfg      config.ProviderConfig
	client   openai.Client
}

// NewDallE creates the DALL-E image adapter from its provider configuration.
func NewDallE(cfg config.ProviderConfig) *DallE {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &DallE{
		identity: Identity{ID: cfg.ID, DisplayName: "DALL-E", Kind: KindImage},
		cfg:      cfg,
		client:   openai.NewClient(opts...),
	}
}

// ID returns the provider identifier.
func (a *DallE) ID() string { return a.identity.ID }

// DisplayName returns the human-readable provider name.
func (a *DallE) DisplayName() string { return a.identity.DisplayName }

// Kind returns KindImage.
func (a *DallE) Kind() Kind { return a.identity.Kind }

// Capabilities returns the adapter's declared capability flags.
func (a *DallE) Capabilities() Capabilities {
	return Capabilities{
		MaxImageDim:   1792,
		OutputFormats: []string{"png"},
	}
}

// Models returns the advertised model list.
func (a *DallE) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "dall-e-3", DisplayName: "DALL-E 3", Priority: 70},
		{ID: "dall-e-2", DisplayName: "DALL-E 2", Priority: 60},
	}
}

// Available reports whether the adapter is enabled and has a credential; the
// check is local and performs no network call.
func (a *DallE) Available(_ context.Context) bool {
	return a.cfg.Enabled && a.cfg.APIKey != ""
}

// GenerateImage sends a prompt to the Images API. The backend returns
// absolute URLs, so no base-address resolution is needed.
func (a *DallE) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if !a.cfg.Enabled || a.cfg.APIKey == "" {
		return nil, Errf(ErrConfiguration, a.DisplayName(), "missing API key")
	}

	model := req.Model
	if model == "" {
		model = a.cfg.DefaultModel
	}
	if model == "" {
		model = dalleDefaultModel
	}

	count := req.Count
	if count <= 0 {
		count = 1
	}

	resp, err := a.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          openai.ImageModel(model),
		N:              openai.Int(int64(count)),
		Size:           dalleSize(req.Width, req.Height),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "API error", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, Errf(ErrProtocol, a.DisplayName(), "no images returned")
	}

	assets := make([]artifact.Asset, 0, len(resp.Data))
	for _, img := range resp.Data {
		assets = append(assets, artifact.NewAsset(img.URL, a.ID(), model, req.Prompt))
	}
	return &ImageResult{Assets: assets}, nil
}

// dalleSize maps requested dimensions onto the closest size the API accepts.
func dalleSize(width, height int) openai.ImageGenerateParamsSize {
	switch {
	case width <= 0 || height <= 0:
		return openai.ImageGenerateParamsSize1024x1024
	case width > height:
		return openai.ImageGenerateParamsSize1792x1024
	case height > width:
		return openai.ImageGenerateParamsSize1024x1792
	default:
		return openai.ImageGenerateParamsSize1024x1024
	}
}
