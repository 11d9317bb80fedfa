package oauthlogin

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeInteractive struct {
	results map[string]struct {
		ok     bool
		output string
	}
	invoked []string
}

func (f *fakeInteractive) respond(cmd string) (bool, string, error) {
	f.invoked = append(f.invoked, cmd)
	if r, found := f.results[cmd]; found {
		return r.ok, r.output, nil
	}
	return true, "", nil
}

func (f *fakeInteractive) Run(binary string, args ...string) (bool, string, error) {
	return f.respond(strings.Join(args, " "))
}

func (f *fakeInteractive) RunInteractive(binary string, args ...string) (bool, string, error) {
	return f.respond("tty:" + strings.Join(args, " "))
}

func TestParseOnboardAuthChoices(t *testing.T) {
	help := strings.Join([]string{
		"Usage: openclaw onboard [options]",
		"",
		"  --auth-choice <choice>  Auth: openai-codex | anthropic | qwen-portal | skip",
		"  --mode <mode>           Install mode",
	}, "\n")
	got := ParseOnboardAuthChoices(help)
	want := []string{"openai-codex", "anthropic", "qwen-portal", "skip"}
	if len(got) != len(want) {
		t.Fatalf("choices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("choices[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseOnboardAuthChoicesNoMarker(t *testing.T) {
	if got := ParseOnboardAuthChoices("no auth section here"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestOutputLooksFailed(t *testing.T) {
	cases := []struct {
		output string
		want   bool
	}{
		{"Login cancelled by user", true},
		{"request timed out after 120s", true},
		{"Error: port already in use", true},
		{"OAuth login succeeded", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := OutputLooksFailed(tc.output); got != tc.want {
			t.Errorf("OutputLooksFailed(%q) = %v, want %v", tc.output, got, tc.want)
		}
	}
}

func TestListProvidersMergesSources(t *testing.T) {
	runner := &fakeInteractive{results: map[string]struct {
		ok     bool
		output string
	}{
		"models status --json": {true, `{"auth":{"providersWithOAuth":["codex","qwen-portal (2)"]}}`},
		"onboard --help":       {true, "  --auth-choice <x>  Auth: anthropic | token | minimax-api\n  --mode <m>"},
	}}

	providers := ListProviders(runner, "openclaw")
	set := make(map[string]bool)
	for _, id := range providers {
		set[id] = true
	}
	if !set["openai-codex"] || !set["qwen-portal"] || !set["anthropic"] {
		t.Fatalf("providers = %v", providers)
	}
	if set["token"] || set["minimax-api"] {
		t.Fatalf("non-provider choices leaked: %v", providers)
	}
	for i := 1; i < len(providers); i++ {
		if providers[i-1] >= providers[i] {
			t.Fatalf("providers not sorted: %v", providers)
		}
	}
}

func TestListProvidersWithoutBinaryUsesFallback(t *testing.T) {
	providers := ListProviders(&fakeInteractive{}, "")
	if len(providers) == 0 {
		t.Fatal("fallback list must not be empty")
	}
}

func TestHasAuthProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth-profiles.json")
	content := `{"version":1,"profiles":{"openai-codex:user@example.com":{"provider":"openai-codex","type":"oauth"}}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if !hasAuthProfile(path, "openai-codex") {
		t.Fatal("expected profile for openai-codex")
	}
	if hasAuthProfile(path, "anthropic") {
		t.Fatal("unexpected profile for anthropic")
	}
	if hasAuthProfile(filepath.Join(dir, "missing.json"), "openai-codex") {
		t.Fatal("missing file must not report profiles")
	}
}

func TestLoginRejectsEmptyProvider(t *testing.T) {
	result := Login(&fakeInteractive{}, "openclaw", "  ")
	if result.Launched {
		t.Fatal("empty provider must not launch")
	}
	if result.Details != "Provider id is required." {
		t.Fatalf("details = %q", result.Details)
	}
}

func TestLoginWithoutBinary(t *testing.T) {
	result := Login(&fakeInteractive{}, "", "codex")
	if result.Launched {
		t.Fatal("must not launch without a binary")
	}
	if result.ProviderID != "openai-codex" {
		t.Fatalf("provider id = %q, want normalized form", result.ProviderID)
	}
	if !strings.Contains(result.Details, "openclaw binary not found") {
		t.Fatalf("details = %q", result.Details)
	}
}

func TestLoginFailsWhenProfileMissing(t *testing.T) {
	t.Setenv("OPENCLAW_AGENT_DIR", t.TempDir())
	runner := &fakeInteractive{results: map[string]struct {
		ok     bool
		output string
	}{
		"tty:models auth login --provider anthropic": {true, "Opened browser for sign-in"},
	}}

	result := Login(runner, "openclaw", "claude")
	if result.Launched {
		t.Fatal("no auth profile was written, login must not report success")
	}
	if !strings.Contains(result.Details, "provider auth profile was not ready") {
		t.Fatalf("details = %q", result.Details)
	}
}

func TestLoginSuccessSwitchesDefaultModel(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENCLAW_AGENT_DIR", dir)
	content := `{"version":1,"profiles":{"qwen-portal:default":{"provider":"qwen-portal","type":"oauth"}}}`
	if err := os.WriteFile(filepath.Join(dir, "auth-profiles.json"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	runner := &fakeInteractive{}
	result := Login(runner, "openclaw", "qwen-portal")
	if !result.Launched {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Details, "Default model switched to qwen-portal/coder-model.") {
		t.Fatalf("details = %q", result.Details)
	}
	if !strings.Contains(result.Details, "existing profile refreshed/reused") {
		t.Fatalf("details = %q", result.Details)
	}
	modelSet := false
	for _, cmd := range runner.invoked {
		if cmd == "models set qwen-portal/coder-model" {
			modelSet = true
		}
	}
	if !modelSet {
		t.Fatalf("models set not invoked: %v", runner.invoked)
	}
}
