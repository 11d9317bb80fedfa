package installer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/openclaw/openclaw-desktop/internal/cliexec"
	"github.com/openclaw/openclaw-desktop/internal/paths"
)

// BundleDir locates the offline payload shipped next to the desktop app, or
// "" when none is present. Dev builds keep the payload under the working
// directory; packaged builds keep it beside (or above) the executable.
func BundleDir() string {
	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates,
			filepath.Join(cwd, "openclaw-bundle"),
			filepath.Join(cwd, "bundle", "resources", "openclaw-bundle"),
		)
	}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(exeDir, "openclaw-bundle"),
			filepath.Join(exeDir, "..", "..", "Resources", "openclaw-bundle"),
			filepath.Join(exeDir, "..", "..", "bundle", "resources", "openclaw-bundle"),
		)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			if resolved, err := filepath.Abs(candidate); err == nil {
				return resolved
			}
			return candidate
		}
	}
	return ""
}

// InstallFromBundle attempts a fully offline install from the payload at
// bundleDir into the user's state directory. Returns false (with no error)
// when the payload is absent or incomplete, signaling the caller to fall
// back to the network installer.
func InstallFromBundle(bundleDir string, emit func(string)) (bool, error) {
	if bundleDir == "" {
		emit("No bundled OpenClaw payload found in installer resources.")
		return false, nil
	}
	if paths.UserHome() == "" {
		return false, fmt.Errorf("cannot resolve user home path for offline install")
	}

	prefix := paths.StateDir()
	if err := os.MkdirAll(prefix, 0o755); err != nil {
		return false, err
	}

	preparedPrefix := filepath.Join(bundleDir, "prefix")
	if info, err := os.Stat(preparedPrefix); err == nil && info.IsDir() {
		emit("Installing OpenClaw from bundled prefix snapshot...")
		if err = copyDirNative(preparedPrefix, prefix); err != nil {
			return false, err
		}
		if err = ensureLauncher(prefix, bundleDir, emit); err != nil {
			emit("WARN: " + err.Error())
		}
		if PrefixHasBinary(prefix) {
			emit("OpenClaw bundled prefix install completed.")
			return true, nil
		}
		emit("Bundled prefix copied but openclaw binary was not found; fallback to npm offline install.")
	}

	nodeBin := bundledNodeBinary(bundleDir)
	npmCli := filepath.Join(bundleDir, "npm", "bin", "npm-cli.js")
	archive := filepath.Join(bundleDir, "openclaw.tgz")
	npmCache := filepath.Join(bundleDir, "npm-cache")
	if nodeBin == "" || !fileExists(npmCli) || !fileExists(archive) || !dirExists(npmCache) {
		emit("Bundled payload is incomplete; skip offline install.")
		return false, nil
	}

	emit("Installing OpenClaw from bundled offline payload...")
	cmd := exec.Command(nodeBin, npmCli, "install",
		"--prefix", prefix, archive,
		"--cache", npmCache,
		"--offline", "--no-audit", "--no-fund", "--loglevel=error")
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	detail := cliexec.SummarizeOutput(stdout.String(), stderr.String())
	if err != nil {
		if _, exited := err.(*exec.ExitError); !exited {
			return false, fmt.Errorf("failed to run bundled npm installer: %w", err)
		}
		if detail == "" {
			return false, fmt.Errorf("bundled offline install failed with no output")
		}
		return false, fmt.Errorf("bundled offline install failed: %s", detail)
	}

	if err = ensureLauncher(prefix, bundleDir, emit); err != nil {
		emit("WARN: " + err.Error())
	}
	if PrefixHasBinary(prefix) {
		emit("OpenClaw offline bundle install completed.")
		return true, nil
	}
	return false, fmt.Errorf("bundled npm install succeeded but openclaw binary not found")
}

// copyDirNative copies a directory tree with the platform's copy tool,
// removing a pre-existing destination first. Argument vectors keep paths
// with spaces or quotes intact on Unix; the PowerShell variant escapes
// single quotes for its literal-path syntax.
func copyDirNative(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		if err = os.RemoveAll(dst); err != nil {
			return err
		}
	}
	if parent := filepath.Dir(dst); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return err
		}
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		script := fmt.Sprintf("Copy-Item -LiteralPath '%s' -Destination '%s' -Recurse -Force",
			strings.ReplaceAll(src, "'", "''"), strings.ReplaceAll(dst, "'", "''"))
		cmd = exec.Command("powershell", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", script)
	} else {
		cmd = exec.Command("cp", "-R", src, dst)
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("directory copy failed: %s", cliexec.SummarizeOutput(stdout.String(), stderr.String()))
	}
	return nil
}

// prefixEntryModule finds the packaged CLI entry module under a prefix.
func prefixEntryModule(prefix string) string {
	for _, candidate := range []string{
		filepath.Join(prefix, "node_modules", "openclaw", "openclaw.mjs"),
		filepath.Join(prefix, "lib", "node_modules", "openclaw", "openclaw.mjs"),
	} {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func bundledNodeBinary(bundleDir string) string {
	names := []string{"node"}
	if runtime.GOOS == "windows" {
		names = []string{"node.exe"}
	}
	for _, name := range names {
		for _, candidate := range []string{
			filepath.Join(bundleDir, "node", "bin", name),
			filepath.Join(bundleDir, "node", name),
		} {
			if fileExists(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// nodeRuntimeRoot returns the directory tree to copy for a node binary:
// its parent, or the grandparent when the binary sits in a bin/ directory.
func nodeRuntimeRoot(nodeBinary string) string {
	parent := filepath.Dir(nodeBinary)
	if strings.EqualFold(filepath.Base(parent), "bin") {
		return filepath.Dir(parent)
	}
	return parent
}

func nodeBinaryInRuntime(runtimeDir string) string {
	name := "node"
	if runtime.GOOS == "windows" {
		name = "node.exe"
	}
	for _, candidate := range []string{
		filepath.Join(runtimeDir, "bin", name),
		filepath.Join(runtimeDir, name),
	} {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// ensureLauncher synthesizes a launcher under <prefix>/bin that execs a
// node runtime against the packaged entry module, forwarding all
// arguments. A bundled node runtime is copied into the prefix when
// available; otherwise the launcher relies on a system node.
func ensureLauncher(prefix, bundleDir string, emit func(string)) error {
	entry := prefixEntryModule(prefix)
	if entry == "" {
		return fmt.Errorf("openclaw.mjs not found under bundled prefix (node_modules/openclaw)")
	}

	binDir := filepath.Join(prefix, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}

	nodeCmd := "node"
	if bundledNode := bundledNodeBinary(bundleDir); bundledNode != "" {
		runtimeDir := filepath.Join(prefix, "node-runtime")
		if err := copyDirNative(nodeRuntimeRoot(bundledNode), runtimeDir); err != nil {
			return err
		}
		if target := nodeBinaryInRuntime(runtimeDir); target != "" {
			if runtime.GOOS != "windows" {
				if err := os.Chmod(target, 0o755); err != nil {
					return err
				}
			}
			nodeCmd = target
		} else {
			emit("Bundled node runtime copied, but node binary was not found; launcher will use system node.")
		}
	} else {
		emit("Bundled node runtime missing; launcher will use system node.")
	}

	if runtime.GOOS == "windows" {
		launcher := filepath.Join(binDir, "openclaw.cmd")
		script := fmt.Sprintf("@echo off\r\n\"%s\" \"%s\" %%*\r\n", nodeCmd, entry)
		if err := os.WriteFile(launcher, []byte(script), 0o644); err != nil {
			return err
		}
	} else {
		launcher := filepath.Join(binDir, "openclaw")
		script := fmt.Sprintf("#!/bin/sh\nexec \"%s\" \"%s\" \"$@\"\n", nodeCmd, entry)
		if err := os.WriteFile(launcher, []byte(script), 0o755); err != nil {
			return err
		}
	}

	emit("Generated local launcher: " + filepath.Join(prefix, "bin", "openclaw"))
	return nil
}

// PrefixHasBinary reports whether an installed prefix contains a usable
// launcher or entry module.
func PrefixHasBinary(prefix string) bool {
	var candidates []string
	if runtime.GOOS == "windows" {
		candidates = []string{
			filepath.Join(prefix, "bin", "openclaw.cmd"),
			filepath.Join(prefix, "bin", "openclaw.exe"),
			filepath.Join(prefix, "node_modules", ".bin", "openclaw.cmd"),
		}
	} else {
		candidates = []string{
			filepath.Join(prefix, "bin", "openclaw"),
			filepath.Join(prefix, "node_modules", ".bin", "openclaw"),
		}
	}
	candidates = append(candidates,
		filepath.Join(prefix, "node_modules", "openclaw", "openclaw.mjs"),
		filepath.Join(prefix, "lib", "node_modules", "openclaw", "openclaw.mjs"),
	)
	for _, candidate := range candidates {
		if fileExists(candidate) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
