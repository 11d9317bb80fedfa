// Package browserdetect locates installed Chromium-family browsers so the
// gateway's browser integration can be pointed at a real executable.
package browserdetect

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/openclaw/openclaw-desktop/internal/configdoc"
)

// Detect returns every Chromium-family executable found on this machine,
// in preference order and with duplicates removed.
func Detect() []configdoc.Executable {
	var found []configdoc.Executable
	seen := make(map[string]struct{})
	add := func(kind, path string) {
		if path == "" {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		found = append(found, configdoc.Executable{Kind: kind, Path: path})
	}

	switch runtime.GOOS {
	case "darwin":
		for _, c := range darwinCandidates() {
			if fileExists(c.Path) {
				add(c.Kind, c.Path)
			}
		}
	case "windows":
		for _, c := range windowsCandidates() {
			if fileExists(c.Path) {
				add(c.Kind, c.Path)
			}
		}
	default:
		for _, c := range linuxNames() {
			if path, err := exec.LookPath(c.Path); err == nil {
				add(c.Kind, path)
			}
		}
		for _, c := range linuxAbsolute() {
			if fileExists(c.Path) {
				add(c.Kind, c.Path)
			}
		}
	}
	return found
}

func darwinCandidates() []configdoc.Executable {
	apps := []configdoc.Executable{
		{Kind: "chrome", Path: "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
		{Kind: "chrome-beta", Path: "/Applications/Google Chrome Beta.app/Contents/MacOS/Google Chrome Beta"},
		{Kind: "chrome-canary", Path: "/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary"},
		{Kind: "chromium", Path: "/Applications/Chromium.app/Contents/MacOS/Chromium"},
		{Kind: "brave", Path: "/Applications/Brave Browser.app/Contents/MacOS/Brave Browser"},
		{Kind: "edge", Path: "/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
	}
	if home, err := os.UserHomeDir(); err == nil {
		personal := make([]configdoc.Executable, 0, len(apps))
		for _, app := range apps {
			personal = append(personal, configdoc.Executable{Kind: app.Kind, Path: filepath.Join(home, app.Path)})
		}
		apps = append(apps, personal...)
	}
	return apps
}

func windowsCandidates() []configdoc.Executable {
	roots := []string{
		os.Getenv("ProgramFiles"),
		os.Getenv("ProgramFiles(x86)"),
		os.Getenv("LocalAppData"),
	}
	relative := []configdoc.Executable{
		{Kind: "chrome", Path: `Google\Chrome\Application\chrome.exe`},
		{Kind: "chrome-beta", Path: `Google\Chrome Beta\Application\chrome.exe`},
		{Kind: "chromium", Path: `Chromium\Application\chrome.exe`},
		{Kind: "brave", Path: `BraveSoftware\Brave-Browser\Application\brave.exe`},
		{Kind: "edge", Path: `Microsoft\Edge\Application\msedge.exe`},
	}
	var out []configdoc.Executable
	for _, root := range roots {
		if root == "" {
			continue
		}
		for _, rel := range relative {
			out = append(out, configdoc.Executable{Kind: rel.Kind, Path: filepath.Join(root, rel.Path)})
		}
	}
	return out
}

func linuxNames() []configdoc.Executable {
	return []configdoc.Executable{
		{Kind: "chrome", Path: "google-chrome"},
		{Kind: "chrome", Path: "google-chrome-stable"},
		{Kind: "chrome-beta", Path: "google-chrome-beta"},
		{Kind: "chromium", Path: "chromium"},
		{Kind: "chromium", Path: "chromium-browser"},
		{Kind: "brave", Path: "brave-browser"},
		{Kind: "edge", Path: "microsoft-edge"},
	}
}

func linuxAbsolute() []configdoc.Executable {
	return []configdoc.Executable{
		{Kind: "chrome", Path: "/usr/bin/google-chrome"},
		{Kind: "chromium", Path: "/usr/bin/chromium"},
		{Kind: "chromium", Path: "/snap/bin/chromium"},
		{Kind: "brave", Path: "/usr/bin/brave-browser"},
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
