// Package paths resolves the filesystem locations and environment overrides
// used by the OpenClaw desktop backend: the CLI state directory, the JSON
// config document, the agent auth-profiles document, and the local Codex
// auth file that credential federation consumes.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// DefaultAgentID is the agent whose auth-profiles document receives
// federated credentials.
const DefaultAgentID = "main"

// OfficialWebURL is the local gateway dashboard endpoint.
const OfficialWebURL = "http://127.0.0.1:18789/"

// Environment variable names recognized by the backend.
const (
	EnvBin          = "OPENCLAW_BIN"
	EnvStateDir     = "OPENCLAW_STATE_DIR"
	EnvConfigPath   = "OPENCLAW_CONFIG_PATH"
	EnvAgentDir     = "OPENCLAW_AGENT_DIR"
	EnvAgentDirAlt  = "PI_CODING_AGENT_DIR"
	EnvGatewayToken = "OPENCLAW_GATEWAY_TOKEN"
)

// EnvPath returns the cleaned value of an environment variable holding a
// path, or "" when unset or blank.
func EnvPath(name string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return ""
	}
	return value
}

// UserHome resolves the user's home directory from HOME or USERPROFILE.
func UserHome() string {
	for _, name := range []string{"HOME", "USERPROFILE"} {
		if home := strings.TrimSpace(os.Getenv(name)); home != "" {
			return home
		}
	}
	return ""
}

// StateDir returns the OpenClaw state directory, honoring OPENCLAW_STATE_DIR.
func StateDir() string {
	if dir := EnvPath(EnvStateDir); dir != "" {
		return dir
	}
	if home := UserHome(); home != "" {
		return filepath.Join(home, ".openclaw")
	}
	return ".openclaw"
}

// ConfigPath returns the path of the OpenClaw config document, honoring
// OPENCLAW_CONFIG_PATH.
func ConfigPath() string {
	if path := EnvPath(EnvConfigPath); path != "" {
		return path
	}
	return filepath.Join(StateDir(), "openclaw.json")
}

// AgentDir returns the agent directory that holds auth-profiles.json. The
// OPENCLAW_AGENT_DIR override wins, then the PI_CODING_AGENT_DIR alias kept
// for older installs.
func AgentDir() string {
	if dir := EnvPath(EnvAgentDir); dir != "" {
		return dir
	}
	if dir := EnvPath(EnvAgentDirAlt); dir != "" {
		return dir
	}
	return filepath.Join(StateDir(), "agents", DefaultAgentID, "agent")
}

// AuthProfilesPath returns the path of the agent's auth-profiles document.
func AuthProfilesPath() string {
	return filepath.Join(AgentDir(), "auth-profiles.json")
}

// CodexAuthPath returns the location of the local Codex CLI auth file.
func CodexAuthPath() string {
	if home := UserHome(); home != "" {
		return filepath.Join(home, ".codex", "auth.json")
	}
	return filepath.Join(".codex", "auth.json")
}

// ClaudeCredentialsPath returns the location of the Claude Code credential
// file used only for reuse detection.
func ClaudeCredentialsPath() string {
	if home := UserHome(); home != "" {
		return filepath.Join(home, ".claude", ".credentials.json")
	}
	return filepath.Join(".claude", ".credentials.json")
}

// GatewayToken returns the gateway auth token from OPENCLAW_GATEWAY_TOKEN or,
// failing that, from the config document (gateway.auth.token, then
// gateway.token). Returns "" when no token is configured.
func GatewayToken() string {
	if token := strings.TrimSpace(os.Getenv(EnvGatewayToken)); token != "" {
		return token
	}
	raw, err := os.ReadFile(ConfigPath())
	if err != nil {
		return ""
	}
	doc := string(raw)
	if !gjson.Valid(doc) {
		doc = string(jsonc.ToJSON(raw))
		if !gjson.Valid(doc) {
			return ""
		}
	}
	for _, path := range []string{"gateway.auth.token", "gateway.token"} {
		if token := strings.TrimSpace(gjson.Get(doc, path).String()); token != "" {
			return token
		}
	}
	return ""
}

// DashboardURL returns the official web URL, carrying the gateway token in
// the fragment when one is configured so the dashboard can authenticate.
func DashboardURL() string {
	if token := GatewayToken(); token != "" {
		return OfficialWebURL + "#token=" + escapeComponent(token)
	}
	return OfficialWebURL
}

func escapeComponent(value string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	}
	return b.String()
}
