package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rsdtools/releaselink/internal/providers"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if req.Model != "llama3" || req.Stream || req.Prompt != "genre?" {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "Jazz"})
	}))
	defer srv.Close()

	got, err := New(srv.URL+"/", 0).Complete(context.Background(), providers.Request{Model: "llama3", Prompt: "genre?"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "Jazz" {
		t.Errorf("got %q", got)
	}
}

func TestCompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, 0).Complete(context.Background(), providers.Request{}); err == nil {
		t.Error("expected error for 404")
	}
}

func TestRegistered(t *testing.T) {
	p, err := providers.New("ollama", 0)
	if err != nil {
		t.Fatalf("providers.New failed: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("name = %q", p.Name())
	}
}
