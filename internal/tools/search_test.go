package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-API-KEY"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["q"] != "best task manager" {
			t.Errorf("query = %q", body["q"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "one", "link": "https://a", "snippet": "first"},
				{"title": "two", "link": "https://b", "snippet": "second"},
				{"title": "three", "link": "https://c", "snippet": "third"},
			},
		})
	}))
	defer server.Close()

	client := NewSearchClient(SearchConfig{APIKey: "test-key", Endpoint: server.URL, MaxHits: 2})

	results, err := client.Search(context.Background(), "best task manager")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (capped)", len(results))
	}
	if results[0].Title != "one" || results[0].Link != "https://a" {
		t.Errorf("first result = %+v", results[0])
	}
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewSearchClient(SearchConfig{APIKey: "k", Endpoint: server.URL})

	if _, err := client.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
