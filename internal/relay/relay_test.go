package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openclaw/openclaw-desktop/internal/configdoc"
)

type fakeRunner struct {
	ok      bool
	output  string
	invoked [][]string
}

func (f *fakeRunner) Run(binary string, args ...string) (bool, string, error) {
	f.invoked = append(f.invoked, append([]string{binary}, args...))
	return f.ok, f.output, nil
}

func TestExtractPathSkipsAdvisoryLines(t *testing.T) {
	output := strings.Join([]string{
		"Docs: https://docs.openclaw.ai/browser",
		"- load the unpacked extension",
		"Copied to clipboard.",
		"/home/user/.openclaw/browser/extension",
		"Next: open chrome://extensions",
	}, "\n")
	if got := ExtractPath(output); got != "/home/user/.openclaw/browser/extension" {
		t.Fatalf("ExtractPath = %q", got)
	}
}

func TestExtractPathEmptyWhenNotInstalled(t *testing.T) {
	if got := ExtractPath("Chrome extension is not installed yet.\n"); got != "" {
		t.Fatalf("ExtractPath = %q, want empty", got)
	}
}

func TestCheckStatusInstalled(t *testing.T) {
	runner := &fakeRunner{ok: true, output: "/tmp/ext\n"}
	status := CheckStatus(runner, "openclaw")
	if !status.Installed || status.Path != "/tmp/ext" {
		t.Fatalf("status = %+v", status)
	}
	if status.CommandHint != CommandHint {
		t.Fatalf("command hint = %q", status.CommandHint)
	}
}

func TestCheckStatusCommandFailed(t *testing.T) {
	runner := &fakeRunner{ok: false, output: "boom"}
	status := CheckStatus(runner, "openclaw")
	if status.Installed {
		t.Fatal("expected not installed")
	}
	if status.Error != "boom" {
		t.Fatalf("error = %q", status.Error)
	}
}

func TestEnsureInstalledEmitsWarningOnFailure(t *testing.T) {
	runner := &fakeRunner{ok: false, output: "npm missing"}
	var lines []string
	EnsureInstalled(runner, "openclaw", func(line string) { lines = append(lines, line) })

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "WARN: failed to prepare browser relay extension: npm missing") {
		t.Fatalf("missing warning in %q", joined)
	}
}

func TestRelayURLFromConfig(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"browser":{"profiles":{"chrome":{"cdpUrl":"http://localhost:9000/"}}}}`, "http://localhost:9000"},
		{`{"browser":{"profiles":{"chrome":{"cdpPort":18793}}}}`, "http://127.0.0.1:18793"},
		{`{"browser":{"profiles":{"chrome":{"cdpPort":99999}}}}`, "http://127.0.0.1:18792"},
		{`{}`, "http://127.0.0.1:18792"},
	}
	for _, tc := range cases {
		doc := configdoc.Parse([]byte(tc.raw))
		if got := RelayURLFromConfig(doc); got != tc.want {
			t.Errorf("RelayURLFromConfig(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestTabsCount(t *testing.T) {
	if got := TabsCount(`{"tabs":[{"id":1},{"id":2}]}`); got != 2 {
		t.Fatalf("TabsCount = %d, want 2", got)
	}
	if got := TabsCount("not json"); got != 0 {
		t.Fatalf("TabsCount = %d, want 0", got)
	}
	if got := TabsCount(`{"tabs":"oops"}`); got != 0 {
		t.Fatalf("TabsCount = %d, want 0", got)
	}
}

func TestExtensionConnectedReadsChunkedBody(t *testing.T) {
	// Payloads that arrive in more than one read must still parse whole.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extension/status" {
			http.NotFound(w, r)
			return
		}
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte(`{"clients":["tab-1","tab-2"],`))
		flusher.Flush()
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`"connected":true}`))
	}))
	defer server.Close()

	connected, detail := extensionConnected(server.Client(), server.URL)
	if detail != "" {
		t.Fatalf("detail = %q", detail)
	}
	if connected == nil || !*connected {
		t.Fatalf("connected = %v, want true", connected)
	}
}

func TestDiagnoseWithoutBinary(t *testing.T) {
	doc := configdoc.Parse([]byte(`{}`))
	diag := Diagnose(&fakeRunner{}, "", doc)
	if diag.LikelyCause != "openclaw CLI is not installed" {
		t.Fatalf("likely cause = %q", diag.LikelyCause)
	}
}
