package logging

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(GinLogrusLogger(), GinLogrusRecovery())
	return engine
}

func TestRequestIDAttachedToRequestAndContext(t *testing.T) {
	engine := newTestEngine(t)

	var ginID, ctxID string
	engine.GET("/v1/version", func(c *gin.Context) {
		ginID = ginRequestID(c)
		ctxID = RequestIDFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/version", nil))

	if ginID == "" || ginID != ctxID {
		t.Fatalf("gin id %q, context id %q", ginID, ctxID)
	}
	if !regexp.MustCompile(`^[0-9a-f]{8}$`).MatchString(ginID) {
		t.Fatalf("request id %q is not 8 hex chars", ginID)
	}
}

func TestRequestEntryWithoutRequestID(t *testing.T) {
	entry := RequestEntry(nil)
	if _, tagged := entry.Data["request_id"]; tagged {
		t.Fatal("entry without a request must carry no request_id field")
	}
}

func TestMaskSensitiveQuery(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"page=2", "page=2"},
		{"token=secret", "token=%2A%2A%2A"},
		{"access_token=secret&page=2", "access_token=%2A%2A%2A&page=2"},
		{"api_key=secret", "api_key=%2A%2A%2A"},
		{"bad=%zz", "bad=%zz"},
	}
	for _, tc := range cases {
		if got := maskSensitiveQuery(tc.raw); got != tc.want {
			t.Errorf("maskSensitiveQuery(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
	if masked := maskSensitiveQuery("token=secret&other=x"); strings.Contains(masked, "secret") {
		t.Errorf("credential leaked through mask: %q", masked)
	}
}

func TestRecoveryRepanicsOnAbortHandler(t *testing.T) {
	engine := newTestEngine(t)
	engine.GET("/abort", func(c *gin.Context) {
		panic(http.ErrAbortHandler)
	})

	defer func() {
		recovered := recover()
		err, ok := recovered.(error)
		if !ok {
			t.Fatalf("expected error panic, got %#v", recovered)
		}
		// net/http matches the sentinel by identity, so wrapping is not
		// enough.
		if !errors.Is(err, http.ErrAbortHandler) || err != http.ErrAbortHandler {
			t.Fatalf("expected the ErrAbortHandler sentinel, got %v", err)
		}
	}()

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
}

func TestRecoveryAnswersInternalErrorOnPanic(t *testing.T) {
	engine := newTestEngine(t)
	engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", recorder.Code)
	}
}
