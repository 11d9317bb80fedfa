package oauthlogin

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/openclaw/openclaw-desktop/internal/authfile"
	"github.com/openclaw/openclaw-desktop/internal/paths"
)

// ClaudeKeychainService is the macOS keychain entry Claude Code stores its
// OAuth credentials under.
const ClaudeKeychainService = "Claude Code-credentials"

// ToolStatus describes one locally installed coding CLI whose credentials
// could be reused inside OpenClaw.
type ToolStatus struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	ProviderID   string `json:"providerId"`
	CLIFound     bool   `json:"cliFound"`
	AuthDetected bool   `json:"authDetected"`
	Source       string `json:"source"`
	Detail       string `json:"detail"`
}

// DetectLocalTools probes for the Codex, Claude Code, and Gemini CLIs and
// their reusable credentials.
func DetectLocalTools() []ToolStatus {
	codex := authfile.DetectCodex()
	codexCLI := commandExists("codex", "--version")

	claudePath := paths.ClaudeCredentialsPath()
	claudeFile := fileExists(claudePath)
	claudeCLI := commandExists("claude", "--version") || commandExists("claude-code", "--version")
	claudeKeychain := claudeKeychainDetected()

	geminiCLI := commandExists("gemini", "--version")
	geminiAuth := false
	if geminiCLI {
		geminiAuth = exec.Command("gemini", "--output-format", "json", "ok").Run() == nil
	}

	claudeSource := claudePath
	if claudeKeychain {
		claudeSource = "macOS Keychain (" + ClaudeKeychainService + ")"
	}

	return []ToolStatus{
		{
			ID:           "codex",
			Label:        "OpenAI Codex",
			ProviderID:   "openai-codex",
			CLIFound:     codexCLI,
			AuthDetected: codex.Detected,
			Source:       codex.Source,
			Detail:       pick(codex.Detected, "Detected local Codex auth tokens.", "No local Codex auth token detected."),
		},
		{
			ID:           "claude-code",
			Label:        "Claude Code",
			ProviderID:   "anthropic",
			CLIFound:     claudeCLI,
			AuthDetected: claudeFile || claudeKeychain,
			Source:       claudeSource,
			Detail:       pick(claudeFile || claudeKeychain, "Detected reusable Claude Code credentials.", "No reusable Claude Code credentials found."),
		},
		{
			ID:           "gemini-cli",
			Label:        "Gemini CLI",
			ProviderID:   "google-gemini-cli",
			CLIFound:     geminiCLI,
			AuthDetected: geminiAuth,
			Source:       "gemini",
			Detail: pick3(geminiAuth, "Gemini CLI is installed and auth probe succeeded.",
				geminiCLI, "Gemini CLI detected; auth state unknown or not ready.",
				"Gemini CLI is not installed."),
		},
	}
}

func claudeKeychainDetected() bool {
	if runtime.GOOS != "darwin" {
		return false
	}
	return exec.Command("security", "find-generic-password", "-s", ClaudeKeychainService, "-w").Run() == nil
}

// ConnectivityStatus is the result of an end-to-end Codex round trip: run
// a one-shot prompt and check the model echoed the expected marker back.
type ConnectivityStatus struct {
	OK       bool   `json:"ok"`
	Expected string `json:"expected"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Command  string `json:"command"`
}

// ValidateCodexConnectivity asks the local codex CLI to echo a marker
// through the model, proving the stored credentials actually work.
func ValidateCodexConnectivity() ConnectivityStatus {
	const expected = "CODEx_OK"
	const prompt = "Reply with exactly: " + expected
	status := ConnectivityStatus{
		Expected: expected,
		Command:  `codex exec --skip-git-repo-check -o <temp_file> "` + prompt + `"`,
	}

	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("openclaw-desktop-codex-probe-%d-%d.txt", os.Getpid(), time.Now().UnixMilli()))
	out, err := exec.Command("codex", "exec", "--skip-git-repo-check", "-o", outPath, prompt).CombinedOutput()
	response := ""
	if data, readErr := os.ReadFile(outPath); readErr == nil {
		response = strings.TrimSpace(string(data))
	}
	_ = os.Remove(outPath)

	if response == "" && strings.Contains(string(out), expected) {
		response = expected
	}
	status.Response = response
	status.OK = err == nil && response == expected
	if status.OK {
		return status
	}

	switch {
	case err != nil && len(out) == 0:
		status.Error = err.Error()
	case strings.TrimSpace(string(out)) != "":
		status.Error = strings.TrimSpace(string(out))
	default:
		status.Error = "No output from codex"
	}
	return status
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func pick3(first bool, firstText string, second bool, secondText, fallback string) string {
	if first {
		return firstText
	}
	if second {
		return secondText
	}
	return fallback
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
