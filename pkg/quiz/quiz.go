// Package quiz defines the contracts between the provider core and the quiz
// generation business logic that consumes it. The implementations live
// outside this repository; the provider registry only needs these shapes to
// describe what its callers exchange.
package quiz

import (
	"context"

	"github.com/zen-systems/quizforge/pkg/artifact"
)

// Question is one generated quiz question with its answer options.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
	Illustration string   `json:"illustration_url,omitempty"`
}

// GenerateRequest asks for a batch of questions on a topic. PreferredProvider
// is passed through to registry selection; empty means "use the default".
type GenerateRequest struct {
	Topic             string
	Count             int
	Difficulty        string
	PreferredProvider string
}

// QuestionGenerator produces quiz questions through a selected text provider.
type QuestionGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]Question, error)
}

// TopicSuggester proposes quiz topics for a theme.
type TopicSuggester interface {
	Suggest(ctx context.Context, theme string, count int) ([]string, error)
}

// Illustrator produces an illustration asset for a question through a
// selected image provider.
type Illustrator interface {
	Illustrate(ctx context.Context, question Question, preferredProvider string) (artifact.Asset, error)
}
