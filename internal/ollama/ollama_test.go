package ollama

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckListsModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.3:latest"},{"name":"qwen2.5-coder:7b"},{}]}`))
	}))
	defer server.Close()

	status := check(server.URL, server.Client())
	if !status.Reachable {
		t.Fatalf("status = %+v", status)
	}
	if len(status.Models) != 2 || status.Models[0] != "llama3.3:latest" {
		t.Fatalf("models = %v", status.Models)
	}
}

func TestCheckServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	status := check(server.URL, server.Client())
	if status.Reachable {
		t.Fatal("5xx must not count as reachable")
	}
	if status.Error != "HTTP 500" {
		t.Fatalf("error = %q", status.Error)
	}
}

func TestCheckUnreachable(t *testing.T) {
	status := check("http://127.0.0.1:1", &http.Client{Timeout: 200 * time.Millisecond})
	if status.Reachable || status.Error == "" {
		t.Fatalf("status = %+v", status)
	}
	if status.Models == nil {
		t.Fatal("models must be an empty slice, not nil")
	}
}
