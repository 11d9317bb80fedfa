// Package installer locates the OpenClaw CLI binary and, when absent,
// installs it: preferably from a bundled offline payload shipped with the
// desktop app, otherwise through the official network install script.
package installer

import (
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/openclaw/openclaw-desktop/internal/cliexec"
	"github.com/openclaw/openclaw-desktop/internal/paths"
)

// osFallbackCandidates are probed after the per-user locations.
var osFallbackCandidates = []string{
	"openclaw",
	"/opt/homebrew/bin/openclaw",
	"/usr/local/bin/openclaw",
	"/usr/bin/openclaw",
	`C:\Program Files\OpenClaw\openclaw.exe`,
}

// Resolver finds a working OpenClaw binary.
type Resolver struct {
	Runner cliexec.Runner
}

// NewResolver returns a resolver probing with the real CLI.
func NewResolver() *Resolver {
	return &Resolver{Runner: cliexec.ExecRunner{}}
}

// Resolve returns the first candidate binary whose version probe exits
// successfully, or "" when the CLI is not installed. Mere existence on disk
// is not enough: broken symlinks and stale shebang launchers only reveal
// themselves when executed.
func (r *Resolver) Resolve() string {
	for _, candidate := range Candidates() {
		ok, _, err := r.Runner.Run(candidate, "--version")
		if err == nil && ok {
			return candidate
		}
	}
	return ""
}

// Candidates returns the probe order: the OPENCLAW_BIN override, the
// per-user install locations, then the OS-wide fallbacks.
func Candidates() []string {
	var candidates []string
	if custom := paths.EnvPath(paths.EnvBin); custom != "" {
		candidates = append(candidates, custom)
	}

	stateDir := paths.StateDir()
	if home := paths.UserHome(); home != "" {
		if runtime.GOOS == "windows" {
			candidates = append(candidates,
				filepath.Join(home, ".local", "bin", "openclaw.cmd"),
				filepath.Join(home, ".local", "bin", "openclaw.exe"),
				filepath.Join(stateDir, "bin", "openclaw.cmd"),
				filepath.Join(stateDir, "bin", "openclaw.exe"),
				filepath.Join(stateDir, "node_modules", ".bin", "openclaw.cmd"),
			)
		} else {
			candidates = append(candidates,
				filepath.Join(home, ".local", "bin", "openclaw"),
				filepath.Join(home, ".npm-global", "bin", "openclaw"),
				filepath.Join(stateDir, "bin", "openclaw"),
				filepath.Join(stateDir, "node_modules", ".bin", "openclaw"),
			)
		}
		candidates = append(candidates,
			filepath.Join(stateDir, "node_modules", "openclaw", "openclaw.mjs"),
			filepath.Join(stateDir, "lib", "node_modules", "openclaw", "openclaw.mjs"),
		)
	}

	candidates = append(candidates, osFallbackCandidates...)
	log.Debugf("binary probe order: %d candidates", len(candidates))
	return candidates
}
