// Package provider defines canonical provider identities and the static
// tables that map providers to their auth plugins and default models.
package provider

import "strings"

// OpenAICodex is the provider that credential federation imports from the
// local Codex CLI.
const OpenAICodex = "openai-codex"

// CodexDefaultModel is applied when federation may override the primary model.
const CodexDefaultModel = "openai-codex/gpt-5.3-codex"

// FallbackOAuthProviders lists providers offered even when the CLI cannot be
// asked for its own list.
var FallbackOAuthProviders = []string{
	"openai-codex",
	"anthropic",
	"github-copilot",
	"chutes",
	"google-antigravity",
	"google-gemini-cli",
	"minimax-portal",
	"qwen-portal",
	"copilot-proxy",
}

// nonProviderAuthChoices are onboard auth choices that do not identify an
// OAuth provider.
var nonProviderAuthChoices = map[string]bool{
	"skip":          true,
	"token":         true,
	"apiKey":        true,
	"setup-token":   true,
	"oauth":         true,
	"claude-cli":    true,
	"codex-cli":     true,
	"minimax-cloud": true,
	"minimax":       true,
}

var aliases = map[string]string{
	"codex":            "openai-codex",
	"openai-codex-cli": "openai-codex",
	"claude":           "anthropic",
	"claude-code":      "anthropic",
	"gemini":           "google-gemini-cli",
	"google-gemini":    "google-gemini-cli",
}

// Normalize converts a raw provider id from an external source into its
// canonical lowercase form. Usage-count suffixes such as "qwen-portal (2)"
// (emitted by `models status --json`) are stripped, and historical spellings
// collapse through the alias table. Returns "" when nothing usable remains.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if strings.HasSuffix(trimmed, ")") {
		if open := strings.LastIndex(trimmed, " ("); open >= 0 {
			digits := trimmed[open+2 : len(trimmed)-1]
			if digits != "" && allDigits(digits) {
				trimmed = strings.TrimSpace(trimmed[:open])
				if trimmed == "" {
					return ""
				}
			}
		}
	}

	lowered := strings.ToLower(trimmed)
	if canonical, ok := aliases[lowered]; ok {
		return canonical
	}
	return lowered
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LooksLikeOAuthProvider reports whether an onboard auth choice names an
// OAuth provider rather than a manual credential mode.
func LooksLikeOAuthProvider(choice string) bool {
	if nonProviderAuthChoices[choice] {
		return false
	}
	if strings.Contains(choice, "api-key") || strings.Contains(choice, "apiKey") ||
		choice == "custom-api-key" || strings.HasPrefix(choice, "minimax-api") {
		return false
	}
	switch choice {
	case "openai-codex", "anthropic", "chutes", "github-copilot", "copilot-proxy",
		"google-antigravity", "google-gemini-cli", "minimax-portal", "qwen-portal":
		return true
	}
	return strings.HasPrefix(choice, "google-") || strings.HasSuffix(choice, "-portal")
}

// PluginID returns the plugin that must be enabled before an OAuth login for
// the given provider, or "" when no plugin is required.
func PluginID(providerID string) string {
	switch providerID {
	case "google-antigravity":
		return "google-antigravity-auth"
	case "google-gemini-cli":
		return "google-gemini-cli-auth"
	case "qwen-portal":
		return "qwen-portal-auth"
	case "copilot-proxy":
		return "copilot-proxy"
	case "minimax-portal":
		return "minimax-portal-auth"
	}
	return ""
}

// DefaultModel returns the model switched to after a successful OAuth login
// for providers that ship a preferred default, or "" for the rest.
func DefaultModel(providerID string) string {
	switch providerID {
	case "qwen-portal":
		return "qwen-portal/coder-model"
	case "minimax-portal":
		return "minimax-portal/MiniMax-M2.5"
	}
	return ""
}
