package artifact

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Artifact represents an immutable piece of generated text with provenance.
type Artifact struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Provider  string            `json:"provider"`
	Model     string            `json:"model"`
	Prompt    string            `json:"prompt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Hash      string            `json:"hash"`
}

// Asset represents a generated image addressed by an absolute URL.
type Asset struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
	Hash      string    `json:"hash"`
}

// New creates a new text Artifact with computed hash.
func New(content, provider, model, prompt string) *Artifact {
	a := &Artifact{
		ID:        generateID(),
		Content:   content,
		Provider:  provider,
		Model:     model,
		Prompt:    prompt,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}
	a.Hash = hashOf(a.Content, a.Provider, a.Model)
	return a
}

// NewAsset creates a new image Asset with computed hash.
func NewAsset(url, provider, model, prompt string) Asset {
	return Asset{
		ID:        generateID(),
		URL:       url,
		Provider:  provider,
		Model:     model,
		Prompt:    prompt,
		CreatedAt: time.Now().UTC(),
		Hash:      hashOf(url, provider, model),
	}
}

// WithMetadata returns a copy of the artifact with additional metadata.
func (a *Artifact) WithMetadata(key, value string) *Artifact {
	copied := *a
	copied.Metadata = make(map[string]string, len(a.Metadata)+1)
	for k, v := range a.Metadata {
		copied.Metadata[k] = v
	}
	copied.Metadata[key] = value
	return &copied
}

func hashOf(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func generateID() string {
	h := sha256.New()
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(time.Now().UnixNano()))
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))[:12]
}
