package match

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingServer(t *testing.T, fail bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if fail {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("request model = %q, want test-model", req.Model)
		}

		// Answer out of order; the client must reorder by index.
		resp := embeddingResponse{Usage: embeddingUsage{TotalTokens: 5}}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingData{
				Index:     i,
				Embedding: []float32{float32(i), float32(i) + 0.5},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbed(t *testing.T) {
	srv := embeddingServer(t, false)
	defer srv.Close()

	ec := NewEmbeddingClient(srv.URL, "test-key", "test-model", 2)
	vectors, err := ec.Embed(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("Embed() returned %d vectors, want 3", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 2 {
			t.Fatalf("vector %d has %d dims, want 2", i, len(v))
		}
		if v[0] != float32(i) {
			t.Errorf("vector %d out of order: first dim = %v, want %v", i, v[0], float32(i))
		}
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	ec := NewEmbeddingClient("http://unused.invalid", "k", "m", 2)
	vectors, err := ec.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) error: %v", err)
	}
	if vectors != nil {
		t.Errorf("Embed(nil) = %v, want nil without an API call", vectors)
	}
}

func TestEmbedAPIError(t *testing.T) {
	srv := embeddingServer(t, true)
	defer srv.Close()

	ec := NewEmbeddingClient(srv.URL, "test-key", "test-model", 2)
	if _, err := ec.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("Embed() succeeded on API error response")
	}
}

func TestEmbedQuery(t *testing.T) {
	srv := embeddingServer(t, false)
	defer srv.Close()

	ec := NewEmbeddingClient(srv.URL, "test-key", "test-model", 2)
	vec, err := ec.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedQuery() error: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("EmbedQuery() vector has %d dims, want 2", len(vec))
	}
}

func TestEmbedBatchSplits(t *testing.T) {
	srv := embeddingServer(t, false)
	defer srv.Close()

	ec := NewEmbeddingClient(srv.URL, "test-key", "test-model", 2)
	texts := []string{"a", "b", "c", "d", "e"}
	vectors, err := ec.EmbedBatch(context.Background(), texts, 2)
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("EmbedBatch() returned %d vectors, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if v == nil {
			t.Errorf("vector %d is nil", i)
		}
	}
}
