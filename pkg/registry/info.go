package registry

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/quizforge/pkg/provider"
)

// Info describes one registered provider for listing views.
type Info struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Kind       provider.Kind `json:"kind"`
	Available  bool          `json:"available"`
	ModelCount int           `json:"model_count"`
}

// ProviderInfo returns a listing of every registered provider with its live
// availability. All probes run concurrently and are awaited before the
// listing is assembled, so one slow backend delays the listing by at most its
// own timeout. Probing a session-authenticated adapter establishes a session
// as a side effect; listings are not read-only for those providers.
func (r *Registry) ProviderInfo(ctx context.Context) []Info {
	providers := make([]provider.Provider, 0, len(r.textOrder)+len(r.imageOrder))
	for _, p := range r.ListText() {
		providers = append(providers, p)
	}
	for _, p := range r.ListImage() {
		providers = append(providers, p)
	}

	infos := make([]Info, len(providers))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			infos[i] = Info{
				ID:         p.ID(),
				Name:       p.DisplayName(),
				Kind:       p.Kind(),
				Available:  p.Available(ctx),
				ModelCount: len(p.Models()),
			}
			return nil
		})
	}
	_ = g.Wait()
	return infos
}
