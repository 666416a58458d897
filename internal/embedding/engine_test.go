package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Cosine: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	if _, err := Cosine([]float32{1, 2}, []float32{1, 2, 3}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

func TestSimilarityRange(t *testing.T) {
	identical, _ := Similarity([]float32{1, 2, 3}, []float32{1, 2, 3})
	if math.Abs(identical-1) > 1e-9 {
		t.Errorf("identical similarity = %f, want 1", identical)
	}

	opposite, _ := Similarity([]float32{1, 0}, []float32{-1, 0})
	if math.Abs(opposite) > 1e-9 {
		t.Errorf("opposite similarity = %f, want 0", opposite)
	}

	orthogonal, _ := Similarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(orthogonal-0.5) > 1e-9 {
		t.Errorf("orthogonal similarity = %f, want 0.5", orthogonal)
	}
}

func TestOllamaEngineEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	engine, err := NewOllamaEngine(srv.URL, "embeddinggemma")
	if err != nil {
		t.Fatalf("NewOllamaEngine: %v", err)
	}

	vector, err := engine.Embed(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vector) != 3 {
		t.Errorf("vector length = %d, want 3", len(vector))
	}
}

func TestOllamaEngineErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	engine, _ := NewOllamaEngine(srv.URL, "missing")
	if _, err := engine.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestGenAIEngineRequiresKey(t *testing.T) {
	if _, err := NewGenAIEngine(context.Background(), "", ""); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestGenAIEngineEmptyBatch(t *testing.T) {
	engine := &GenAIEngine{model: "gemini-embedding-001"}
	vectors, err := engine.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vectors != nil {
		t.Errorf("vectors = %v, want nil", vectors)
	}
	if engine.Name() != "genai:gemini-embedding-001" {
		t.Errorf("Name = %s", engine.Name())
	}
}

func TestNewEngineUnknownProvider(t *testing.T) {
	if _, err := NewEngine(context.Background(), Config{Provider: "word2vec"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}
