package registry

import (
	"sort"

	"github.com/zen-systems/quizforge/pkg/provider"
)

// ModelEntry is one advertised model, tagged with the provider that serves it.
type ModelEntry struct {
	Provider string             `json:"provider"`
	Kind     provider.Kind      `json:"kind"`
	Model    provider.ModelInfo `json:"model"`
}

// AllModels aggregates every registered adapter's advertised model list,
// sorted by per-model priority descending. Pure aggregation; no availability
// probes, no network I/O beyond what Models() itself does.
func (r *Registry) AllModels() []ModelEntry {
	entries := r.modelsOf(provider.KindText)
	entries = append(entries, r.modelsOf(provider.KindImage)...)
	sortModels(entries)
	return entries
}

// ModelsByKind aggregates advertised models for one kind, sorted by per-model
// priority descending.
func (r *Registry) ModelsByKind(kind provider.Kind) []ModelEntry {
	entries := r.modelsOf(kind)
	sortModels(entries)
	return entries
}

func (r *Registry) modelsOf(kind provider.Kind) []ModelEntry {
	var entries []ModelEntry
	switch kind {
	case provider.KindText:
		for _, p := range r.ListText() {
			for _, m := range p.Models() {
				entries = append(entries, ModelEntry{Provider: p.ID(), Kind: kind, Model: m})
			}
		}
	case provider.KindImage:
		for _, p := range r.ListImage() {
			for _, m := range p.Models() {
				entries = append(entries, ModelEntry{Provider: p.ID(), Kind: kind, Model: m})
			}
		}
	}
	return entries
}

func sortModels(entries []ModelEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Model.Priority > entries[j].Model.Priority
	})
}
