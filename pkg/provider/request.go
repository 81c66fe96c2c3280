package provider

import "github.com/zen-systems/quizforge/pkg/artifact"

// TextRequest carries the parameters of a single text generation call.
// Optional sampling fields are pointers so an unset field can be omitted from
// the wire payload rather than sent as a zero value.
type TextRequest struct {
	// Model overrides the adapter's configured default model when set.
	Model  string
	System string
	Prompt string

	MaxTokens        *int
	Temperature      *float64
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Stop             []string
}

// Usage captures normalized token usage for a text generation call.
type Usage struct {
	TotalTokens int `json:"total_tokens"`
}

// TextResult is the success payload of a text generation call.
type TextResult struct {
	Artifact     *artifact.Artifact
	FinishReason string
	Usage        Usage
}

// ImageRequest carries the parameters of a single image generation call.
type ImageRequest struct {
	Model          string
	Prompt         string
	NegativePrompt string
	Count          int
	Width          int
	Height         int
	Steps          int
	CFGScale       float64
	Seed           int64
}

// ImageResult is the success payload of an image generation call. Asset URLs
// are absolute, already resolved against the adapter's base address.
type ImageResult struct {
	Assets []artifact.Asset
}
