package provider

import (
	"context"
)

// Kind distinguishes the two generation capabilities a backend can offer.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Identity holds a provider's immutable identification, assigned at
// construction and never mutated afterward.
type Identity struct {
	ID          string
	DisplayName string
	Kind        Kind
}

// ModelInfo describes one model a provider advertises. Priority orders models
// in aggregated listings; higher sorts first.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Priority    int    `json:"priority"`
}

// Provider is the capability contract common to all backends.
//
// Available reports whether the provider can currently serve a generation
// call. Its side-effect profile differs per adapter: token-authenticated
// adapters answer from local configuration alone, while session-authenticated
// adapters establish a backend session as part of the probe. It must complete
// or fail within the adapter's configured timeout; the registry calls it on
// the selection path.
type Provider interface {
	ID() string
	DisplayName() string
	Kind() Kind
	Capabilities() Capabilities
	Models() []ModelInfo
	Available(ctx context.Context) bool
}

// TextProvider generates text. GenerateText never panics; failures are
// returned as *Error values carrying the taxonomy kind and provider name.
type TextProvider interface {
	Provider
	GenerateText(ctx context.Context, req TextRequest) (*TextResult, error)
}

// ImageProvider generates images.
type ImageProvider interface {
	Provider
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
