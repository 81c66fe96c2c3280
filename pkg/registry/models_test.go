package registry

import (
	"context"
	"testing"
	"time"

	"github.com/zen-systems/quizforge/pkg/config"
	"github.com/zen-systems/quizforge/pkg/provider"
)

// priorityTextProvider advertises a fixed model list for aggregation tests.
type priorityTextProvider struct {
	*provider.MockText
	models []provider.ModelInfo
}

func (p *priorityTextProvider) Models() []provider.ModelInfo { return p.models }

func TestAllModelsSortedByPriority(t *testing.T) {
	cfg := &config.Config{
		Providers: []config.ProviderConfig{
			{ID: "t1", Enabled: true},
			{ID: "t2", Enabled: true},
			{ID: "i1", Enabled: true},
		},
	}

	reg := New(cfg)
	reg.RegisterText(&priorityTextProvider{
		MockText: provider.NewMockText("t1"),
		models: []provider.ModelInfo{
			{ID: "m-low", Priority: 10},
			{ID: "m-high", Priority: 90},
		},
	})
	reg.RegisterText(&priorityTextProvider{
		MockText: provider.NewMockText("t2"),
		models:   []provider.ModelInfo{{ID: "m-mid", Priority: 50}},
	})
	reg.RegisterImage(provider.NewMockImage("i1"))

	entries := reg.AllModels()
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Model.Priority > entries[i-1].Model.Priority {
			t.Fatalf("entries not sorted descending at %d: %v", i, entries)
		}
	}
	if entries[0].Model.ID != "m-high" || entries[0].Provider != "t1" {
		t.Errorf("top entry = %+v, want m-high from t1", entries[0])
	}
}

func TestModelsByKindFilters(t *testing.T) {
	cfg := &config.Config{Providers: []config.ProviderConfig{
		{ID: "t", Enabled: true},
		{ID: "i", Enabled: true},
	}}

	reg := New(cfg)
	reg.RegisterText(provider.NewMockText("t"))
	reg.RegisterImage(provider.NewMockImage("i"))

	for _, e := range reg.ModelsByKind(provider.KindImage) {
		if e.Kind != provider.KindImage {
			t.Errorf("unexpected kind %s in image listing", e.Kind)
		}
	}
	if got := len(reg.ModelsByKind(provider.KindText)); got != 1 {
		t.Errorf("text models = %d, want 1", got)
	}
}

// slowProbeProvider delays its availability probe, to verify that listing
// probes run concurrently rather than sequentially.
type slowProbeProvider struct {
	*provider.MockText
	delay time.Duration
}

func (p *slowProbeProvider) Available(_ context.Context) bool {
	time.Sleep(p.delay)
	return true
}

func TestProviderInfoProbesConcurrently(t *testing.T) {
	cfg := &config.Config{Providers: []config.ProviderConfig{
		{ID: "s1", Enabled: true},
		{ID: "s2", Enabled: true},
		{ID: "s3", Enabled: true},
	}}

	reg := New(cfg)
	for _, id := range []string{"s1", "s2", "s3"} {
		reg.RegisterText(&slowProbeProvider{MockText: provider.NewMockText(id), delay: 50 * time.Millisecond})
	}

	start := time.Now()
	infos := reg.ProviderInfo(context.Background())
	elapsed := time.Since(start)

	if len(infos) != 3 {
		t.Fatalf("infos = %d, want 3", len(infos))
	}
	for _, info := range infos {
		if !info.Available {
			t.Errorf("provider %s reported unavailable", info.ID)
		}
	}
	// Three 50ms sequential probes would take at least 150ms.
	if elapsed > 120*time.Millisecond {
		t.Errorf("probes took %v, expected concurrent execution", elapsed)
	}
}
