package provider

// Capabilities describes what a provider supports. Flags are declared once at
// adapter construction and are advisory: the registry never enforces them and
// adapters never re-derive them at call time.
type Capabilities struct {
	Streaming        bool     `json:"streaming"`
	Vision           bool     `json:"vision"`
	FunctionCalling  bool     `json:"function_calling"`
	MaxContextTokens int      `json:"max_context_tokens,omitempty"`
	MaxImageDim      int      `json:"max_image_dim,omitempty"`
	OutputFormats    []string `json:"output_formats,omitempty"`

	// Extra carries backend-specific flags that have no well-known field.
	Extra map[string]string `json:"extra,omitempty"`
}

// Supports reports whether a backend-specific flag is present in Extra.
func (c Capabilities) Supports(flag string) bool {
	_, ok := c.Extra[flag]
	return ok
}
