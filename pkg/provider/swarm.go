package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/zen-systems/quizforge/pkg/artifact"
	"github.com/zen-systems/quizforge/pkg/config"
)

const (
	swarmDefaultModel = "OfficialStableDiffusion/sd_xl_base_1.0"
	swarmMaxImageDim  = 2048

	sessionEndpoint  = "/API/GetNewSession"
	generateEndpoint = "/API/GenerateText2Image"

	errInvalidSession = "invalid_session_id"
)

// Swarm is the session-authenticated image adapter for a locally hosted
// SwarmUI-style backend. The backend issues an opaque session handle with no
// expiry known to the client; the adapter caches it from acquisition until
// the backend signals invalidation, then drops it so the next call
// re-establishes.
type Swarm struct {
	identity Identity
	cfg      config.ProviderConfig
	baseURL  string
	client   *http.Client

	mu      sync.Mutex
	session string
	sf      singleflight.Group
}

type swarmSessionResponse struct {
	SessionID string `json:"session_id"`
	ErrorID   string `json:"error_id,omitempty"`
}

type swarmGenerateRequest struct {
	SessionID      string  `json:"session_id"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negativeprompt"`
	Model          string  `json:"model"`
	Images         int     `json:"images"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfgscale"`
	Seed           int64   `json:"seed"`
	DoNotSave      bool    `json:"donotsave"`
}

type swarmGenerateResponse struct {
	Images  []string `json:"images"`
	ErrorID string   `json:"error_id,omitempty"`
}

// NewSwarm creates the Swarm image adapter from its provider configuration.
func NewSwarm(cfg config.ProviderConfig) *Swarm {
	return &Swarm{
		identity: Identity{ID: cfg.ID, DisplayName: "SwarmUI", Kind: KindImage},
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

// ID returns the provider identifier.
func (a *Swarm) ID() string { return a.identity.ID }

// DisplayName returns the human-readable provider name.
func (a *Swarm) DisplayName() string { return a.identity.DisplayName }

// Kind returns KindImage.
func (a *Swarm) Kind() Kind { return a.identity.Kind }

// Capabilities returns the adapter's declared capability flags.
func (a *Swarm) Capabilities() Capabilities {
	return Capabilities{
		MaxImageDim:   swarmMaxImageDim,
		OutputFormats: []string{"png", "jpg"},
		Extra:         map[string]string{"negative_prompt": "true", "seed": "true"},
	}
}

// Models returns the advertised model list.
func (a *Swarm) Models() []ModelInfo {
	models := []ModelInfo{
		{ID: swarmDefaultModel, DisplayName: "SDXL Base", Priority: 100},
	}
	if a.cfg.DefaultModel != "" && a.cfg.DefaultModel != swarmDefaultModel {
		models = append(models, ModelInfo{ID: a.cfg.DefaultModel, Priority: 110})
	}
	return models
}

// Available probes the backend by ensuring a session exists. The probe is not
// read-only: on success a session has been established and cached.
func (a *Swarm) Available(ctx context.Context) bool {
	if !a.cfg.Enabled || a.baseURL == "" {
		return false
	}
	_, err := a.ensureSession(ctx)
	return err == nil
}

// ensureSession returns the cached session handle, acquiring one from the
// backend if none is cached. Concurrent callers racing on an empty cache
// share a single acquisition call.
func (a *Swarm) ensureSession(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.session != "" {
		session := a.session
		a.mu.Unlock()
		return session, nil
	}
	a.mu.Unlock()

	v, err, _ := a.sf.Do("session", func() (any, error) {
		a.mu.Lock()
		if a.session != "" {
			session := a.session
			a.mu.Unlock()
			return session, nil
		}
		a.mu.Unlock()
		return a.acquireSession(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *Swarm) acquireSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+sessionEndpoint, strings.NewReader("{}"))
	if err != nil {
		return "", &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "failed to create session request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "session request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{
			Kind:     ErrTransport,
			Provider: a.DisplayName(),
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("session request returned status %d", resp.StatusCode),
		}
	}

	var parsed swarmSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &Error{Kind: ErrProtocol, Provider: a.DisplayName(), Message: "failed to parse session response", Err: err}
	}
	if parsed.SessionID == "" {
		return "", Errf(ErrProtocol, a.DisplayName(), "session response missing session_id")
	}

	a.mu.Lock()
	a.session = parsed.SessionID
	a.mu.Unlock()
	slog.Debug("session established", "provider", a.ID())
	return parsed.SessionID, nil
}

func (a *Swarm) clearSession() {
	a.mu.Lock()
	a.session = ""
	a.mu.Unlock()
	slog.Debug("session cleared", "provider", a.ID())
}

// GenerateImage ensures a session, then issues a text-to-image call. On an
// invalid-session signal the cached handle is dropped and the failure is
// returned without retrying; the next call re-establishes a session.
func (a *Swarm) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	session, err := a.ensureSession(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: ErrBackend, Provider: a.DisplayName(), Message: "failed to create session", Err: err}
	}

	payload := swarmGenerateRequest{
		SessionID:      session,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Model:          a.resolveModel(req.Model),
		Images:         req.Count,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		CFGScale:       req.CFGScale,
		Seed:           req.Seed,
	}
	applyImageDefaults(&payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: ErrProtocol, Provider: a.DisplayName(), Message: "failed to marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+generateEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Provider: a.DisplayName(), Message: "failed to read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:     ErrTransport,
			Provider: a.DisplayName(),
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("generate returned status %d", resp.StatusCode),
		}
	}

	var parsed swarmGenerateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Kind: ErrProtocol, Provider: a.DisplayName(), Message: "failed to parse response", Err: err}
	}

	if parsed.ErrorID != "" {
		if parsed.ErrorID == errInvalidSession {
			a.clearSession()
		}
		return nil, &Error{
			Kind:     ErrBackend,
			Provider: a.DisplayName(),
			Code:     parsed.ErrorID,
			Message:  fmt.Sprintf("backend error: %s", parsed.ErrorID),
		}
	}

	assets := make([]artifact.Asset, 0, len(parsed.Images))
	for _, rel := range parsed.Images {
		assets = append(assets, artifact.NewAsset(a.resolveURL(rel), a.ID(), payload.Model, req.Prompt))
	}
	return &ImageResult{Assets: assets}, nil
}

// resolveURL turns a backend-relative image path into an absolute URL against
// the configured base address.
func (a *Swarm) resolveURL(rel string) string {
	return a.baseURL + "/" + strings.TrimPrefix(rel, "/")
}

func (a *Swarm) resolveModel(override string) string {
	if override != "" {
		return override
	}
	if a.cfg.DefaultModel != "" {
		return a.cfg.DefaultModel
	}
	return swarmDefaultModel
}

func applyImageDefaults(p *swarmGenerateRequest) {
	if p.Images <= 0 {
		p.Images = 1
	}
	if p.Width <= 0 {
		p.Width = 1024
	}
	if p.Height <= 0 {
		p.Height = 1024
	}
	if p.Steps <= 0 {
		p.Steps = 20
	}
	if p.CFGScale <= 0 {
		p.CFGScale = 7
	}
	if p.Seed == 0 {
		p.Seed = -1
	}
}
