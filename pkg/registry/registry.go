// Package registry holds the registered provider adapters and owns the
// selection policy between them. A Registry is constructed once at process
// start and passed to every consumer; there is no package-level singleton.
package registry

import (
	"context"
	"log/slog"
	"sort"

	"github.com/zen-systems/quizforge/pkg/config"
	"github.com/zen-systems/quizforge/pkg/provider"
)

// Registry maps provider ids to adapters, one mapping per kind. Both
// mappings are populated at startup and never resized afterward.
type Registry struct {
	logger    *slog.Logger
	selection config.SelectionConfig
	configs   map[string]config.ProviderConfig

	text  map[string]provider.TextProvider
	image map[string]provider.ImageProvider

	// Registration order per kind, used as the stable tie-breaker when
	// priorities are equal. Re-registering an id keeps its original slot.
	textOrder  []string
	imageOrder []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger used for registration and selection
// events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry from the application configuration.
func New(cfg *config.Config, opts ...Option) *Registry {
	r := &Registry{
		logger:    slog.Default(),
		selection: cfg.Selection,
		configs:   make(map[string]config.ProviderConfig, len(cfg.Providers)),
		text:      make(map[string]provider.TextProvider),
		image:     make(map[string]provider.ImageProvider),
	}
	for _, p := range cfg.Providers {
		r.configs[p.ID] = p
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterText inserts a text adapter. A duplicate id silently overwrites the
// previous registration; callers are expected to register each id once.
func (r *Registry) RegisterText(p provider.TextProvider) {
	if _, exists := r.text[p.ID()]; !exists {
		r.textOrder = append(r.textOrder, p.ID())
	}
	r.text[p.ID()] = p
	r.logger.Info("provider registered",
		"provider", p.ID(),
		"kind", provider.KindText,
		"priority", r.Priority(p.ID()),
	)
}

// RegisterImage inserts an image adapter; same semantics as RegisterText.
func (r *Registry) RegisterImage(p provider.ImageProvider) {
	if _, exists := r.image[p.ID()]; !exists {
		r.imageOrder = append(r.imageOrder, p.ID())
	}
	r.image[p.ID()] = p
	r.logger.Info("provider registered",
		"provider", p.ID(),
		"kind", provider.KindImage,
		"priority", r.Priority(p.ID()),
	)
}

// SelectText resolves the best available text provider: the preferred id
// first, then the configured default, then (if fallback is enabled) the
// remaining candidates in priority order. A provider that failed its probe is
// never probed again within one selection. Generation failures are never
// consulted; selection is driven by availability probes alone.
func (r *Registry) SelectText(ctx context.Context, preferredID string) (provider.TextProvider, error) {
	id, err := r.selectID(ctx, preferredID, r.selection.DefaultText, r.textOrder, func(id string) (provider.Provider, bool) {
		p, ok := r.text[id]
		return p, ok
	})
	if err != nil {
		return nil, err
	}
	return r.text[id], nil
}

// SelectImage is the image-kind equivalent of SelectText.
func (r *Registry) SelectImage(ctx context.Context, preferredID string) (provider.ImageProvider, error) {
	id, err := r.selectID(ctx, preferredID, r.selection.DefaultImage, r.imageOrder, func(id string) (provider.Provider, bool) {
		p, ok := r.image[id]
		return p, ok
	})
	if err != nil {
		return nil, err
	}
	return r.image[id], nil
}

func (r *Registry) selectID(
	ctx context.Context,
	preferredID, defaultID string,
	order []string,
	lookup func(string) (provider.Provider, bool),
) (string, error) {
	probed := make(map[string]bool)

	probe := func(id string) bool {
		if id == "" || probed[id] {
			return false
		}
		p, ok := lookup(id)
		if !ok {
			return false
		}
		probed[id] = true
		if !p.Available(ctx) {
			r.logger.Debug("provider unavailable", "provider", id)
			return false
		}
		return true
	}

	if probe(preferredID) {
		return preferredID, nil
	}
	if probe(defaultID) {
		return defaultID, nil
	}
	if !r.selection.FallbackEnabled {
		return "", r.notFound(preferredID)
	}

	// Priority descending; sort.SliceStable keeps registration order for
	// equal priorities.
	candidates := make([]string, len(order))
	copy(candidates, order)
	sort.SliceStable(candidates, func(i, j int) bool {
		return r.Priority(candidates[i]) > r.Priority(candidates[j])
	})
	for _, id := range candidates {
		if probed[id] {
			continue
		}
		if probe(id) {
			return id, nil
		}
	}
	return "", r.notFound(preferredID)
}

func (r *Registry) notFound(preferredID string) error {
	return &provider.Error{
		Kind:    provider.ErrNotFound,
		Message: "no available provider" + suffixFor(preferredID),
	}
}

func suffixFor(preferredID string) string {
	if preferredID == "" {
		return ""
	}
	return " (preferred: " + preferredID + ")"
}

// ListText returns the registered text adapters in registration order.
func (r *Registry) ListText() []provider.TextProvider {
	out := make([]provider.TextProvider, 0, len(r.textOrder))
	for _, id := range r.textOrder {
		out = append(out, r.text[id])
	}
	return out
}

// ListImage returns the registered image adapters in registration order.
func (r *Registry) ListImage() []provider.ImageProvider {
	out := make([]provider.ImageProvider, 0, len(r.imageOrder))
	for _, id := range r.imageOrder {
		out = append(out, r.image[id])
	}
	return out
}

// Config returns the configuration for the given provider id. An adapter
// without a config entry receives the default.
func (r *Registry) Config(id string) config.ProviderConfig {
	if cfg, ok := r.configs[id]; ok {
		return cfg
	}
	return config.DefaultProviderConfig(id)
}

// Priority returns the configured priority for the given provider id.
func (r *Registry) Priority(id string) int {
	return r.Config(id).Priority
}

// Enabled returns the configured enabled flag for the given provider id.
func (r *Registry) Enabled(id string) bool {
	return r.Config(id).Enabled
}
