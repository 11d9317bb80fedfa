// Package browser opens URLs in the user's default web browser, with
// platform-specific fallbacks for systems where the generic launcher is
// unavailable.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"

	"github.com/openclaw/openclaw-desktop/internal/paths"
)

// OpenDashboard opens the gateway dashboard, with the gateway token in the
// URL fragment when one is configured.
func OpenDashboard() error {
	return OpenURL(paths.DashboardURL())
}

// OpenURL opens the URL in the default browser. The open-golang launcher
// is tried first, then per-OS commands.
func OpenURL(url string) error {
	if err := open.Run(url); err == nil {
		log.Debugf("opened %s via system launcher", url)
		return nil
	}
	return openURLPlatformSpecific(url)
}

func openURLPlatformSpecific(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		for _, candidate := range linuxLaunchers {
			if _, err := exec.LookPath(candidate); err == nil {
				cmd = exec.Command(candidate, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no suitable browser found on Linux system")
		}
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser command: %w", err)
	}
	log.Debugf("opened %s via %s", url, cmd.Path)
	return nil
}

var linuxLaunchers = []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium", "google-chrome"}

// IsAvailable reports whether this system has any way to open a browser.
func IsAvailable() bool {
	switch runtime.GOOS {
	case "darwin":
		_, err := exec.LookPath("open")
		return err == nil
	case "windows":
		_, err := exec.LookPath("rundll32")
		return err == nil
	case "linux":
		for _, candidate := range linuxLaunchers {
			if _, err := exec.LookPath(candidate); err == nil {
				return true
			}
		}
	}
	return false
}
