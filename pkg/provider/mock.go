package provider

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/zen-systems/quizforge/pkg/artifact"
)

// MockText returns deterministic text responses for local runs and tests.
type MockText struct {
	identity  Identity
	responses map[string]string
	available atomic.Bool
	calls     atomic.Int64
}

// NewMockText creates an available mock text provider with the given id.
func NewMockText(id string) *MockText {
	m := &MockText{
		identity:  Identity{ID: id, DisplayName: "Mock " + id, Kind: KindText},
		responses: make(map[string]string),
	}
	m.available.Store(true)
	return m
}

// SetAvailable controls the outcome of subsequent availability probes.
func (m *MockText) SetAvailable(v bool) { m.available.Store(v) }

// SetResponse sets the canned response for a prompt.
func (m *MockText) SetResponse(prompt, response string) { m.responses[prompt] = response }

// Calls returns how many generation calls the mock has served.
func (m *MockText) Calls() int64 { return m.calls.Load() }

// ID returns the provider identifier.
func (m *MockText) ID() string { return m.identity.ID }

// DisplayName returns the human-readable provider name.
func (m *MockText) DisplayName() string { return m.identity.DisplayName }

// Kind returns KindText.
func (m *MockText) Kind() Kind { return m.identity.Kind }

// Capabilities returns empty capability flags.
func (m *MockText) Capabilities() Capabilities { return Capabilities{} }

// Models returns a single mock model.
func (m *MockText) Models() []ModelInfo {
	return []ModelInfo{{ID: "mock-text-1", Priority: 1}}
}

// Available reports the configured availability.
func (m *MockText) Available(_ context.Context) bool { return m.available.Load() }

// GenerateText returns the canned response for the prompt, or a deterministic
// echo when none is set.
func (m *MockText) GenerateText(_ context.Context, req TextRequest) (*TextResult, error) {
	m.calls.Add(1)
	model := req.Model
	if model == "" {
		model = "mock-text-1"
	}
	content, ok := m.responses[req.Prompt]
	if !ok {
		content = fmt.Sprintf("mock response:\n%s", req.Prompt)
	}
	return &TextResult{
		Artifact:     artifact.New(content, m.ID(), model, req.Prompt),
		FinishReason: "stop",
	}, nil
}

// MockImage returns deterministic image assets for local runs and tests.
type MockImage struct {
	identity  Identity
	available atomic.Bool
	calls     atomic.Int64
}

// NewMockImage creates an available mock image provider with the given id.
func NewMockImage(id string) *MockImage {
	m := &MockImage{
		identity: Identity{ID: id, DisplayName: "Mock " + id, Kind: KindImage},
	}
	m.available.Store(true)
	return m
}

// SetAvailable controls the outcome of subsequent availability probes.
func (m *MockImage) SetAvailable(v bool) { m.available.Store(v) }

// Calls returns how many generation calls the mock has served.
func (m *MockImage) Calls() int64 { return m.calls.Load() }

// ID returns the provider identifier.
func (m *MockImage) ID() string { return m.identity.ID }

// DisplayName returns the human-readable provider name.
func (m *MockImage) DisplayName() string { return m.identity.DisplayName }

// Kind returns KindImage.
func (m *MockImage) Kind() Kind { return m.identity.Kind }

// Capabilities returns empty capability flags.
func (m *MockImage) Capabilities() Capabilities { return Capabilities{} }

// Models returns a single mock model.
func (m *MockImage) Models() []ModelInfo {
	return []ModelInfo{{ID: "mock-image-1", Priority: 1}}
}

// Available reports the configured availability.
func (m *MockImage) Available(_ context.Context) bool { return m.available.Load() }

// GenerateImage returns a deterministic asset URL derived from the call count.
func (m *MockImage) GenerateImage(_ context.Context, req ImageRequest) (*ImageResult, error) {
	n := m.calls.Add(1)
	model := req.Model
	if model == "" {
		model = "mock-image-1"
	}
	url := fmt.Sprintf("http://mock.local/images/%s-%d.png", m.ID(), n)
	return &ImageResult{
		Assets: []artifact.Asset{artifact.NewAsset(url, m.ID(), model, req.Prompt)},
	}, nil
}
