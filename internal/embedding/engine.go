// Package embedding provides the semantic text representation used by the
// deduplication engine. An Engine is the similarity oracle: it turns text
// into vectors; similarity between two texts is cosine similarity between
// their vectors, mapped into [0,1].
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name identifies the engine, e.g. "genai:gemini-embedding-001".
	Name() string
}

// Config holds embedding engine configuration.
type Config struct {
	Provider string `mapstructure:"provider"` // "genai" or "ollama"

	// GenAI settings.
	GenAIAPIKey string `mapstructure:"-"`
	GenAIModel  string `mapstructure:"genai_model"`

	// Ollama settings.
	OllamaEndpoint string `mapstructure:"ollama_endpoint"`
	OllamaModel    string `mapstructure:"ollama_model"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:       "genai",
		GenAIModel:     "gemini-embedding-001",
		OllamaEndpoint: "http://localhost:11434",
		OllamaModel:    "embeddinggemma",
	}
}

// NewEngine creates an embedding engine based on configuration.
func NewEngine(ctx context.Context, cfg Config) (Engine, error) {
	switch cfg.Provider {
	case "genai", "":
		return NewGenAIEngine(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	case "ollama":
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'genai' or 'ollama')", cfg.Provider)
	}
}

// Cosine calculates the cosine similarity between two vectors. The result is
// in [-1, 1]; zero-magnitude vectors yield 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// Similarity maps cosine similarity into [0, 1] so thresholds are expressed
// on a fixed scale regardless of the embedding backend.
func Similarity(a, b []float32) (float64, error) {
	cos, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return (cos + 1) / 2, nil
}
