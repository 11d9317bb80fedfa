package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/openclaw/openclaw-desktop/internal/gateway"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := NewServer(gateway.NewSupervisor())
	s.resolve = func() string { return "" }
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestVersionEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/v1/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["version"] == "" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestSaveAPIKeyValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		body string
		want int
	}{
		{`{"providerId":"openai","apiKey":"sk-123"}`, http.StatusOK},
		{`{"providerId":"","apiKey":"sk-123"}`, http.StatusBadRequest},
		{`{"providerId":"openai","apiKey":"  "}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := do(t, s, http.MethodPost, "/v1/api-key", tc.body)
		if rec.Code != tc.want {
			t.Errorf("body %q: status = %d, want %d", tc.body, rec.Code, tc.want)
		}
	}
}

func TestRelayStatusWithoutBinary(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/v1/browser/relay", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "openclaw binary not found") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestBrowserModeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENCLAW_CONFIG_PATH", filepath.Join(dir, "openclaw.json"))
	if err := os.WriteFile(filepath.Join(dir, "openclaw.json"), []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/v1/browser/mode", `{"mode":"chrome"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set mode status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/v1/browser/mode", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get mode status = %d", rec.Code)
	}
	var mode struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &mode); err != nil {
		t.Fatal(err)
	}
	if mode.Mode != "chrome" {
		t.Fatalf("mode = %q, want chrome", mode.Mode)
	}
}

func TestSetBrowserModeRejectsUnknown(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENCLAW_CONFIG_PATH", filepath.Join(dir, "openclaw.json"))

	rec := do(t, newTestServer(t), http.MethodPut, "/v1/browser/mode", `{"mode":"firefox"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOAuthLoginRequiresProvider(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/v1/oauth/login", `{"providerId":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Provider id is required.") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestOAuthProvidersAlwaysListsFallback(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/v1/oauth/providers", "")
	var payload struct {
		Providers []string `json:"providers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Providers) == 0 {
		t.Fatal("providers must not be empty without a binary")
	}
}
