package configdoc

import (
	"fmt"
	"strings"
)

// Executable is a locally detected browser binary.
type Executable struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// DetectFunc supplies the locally detected browser executables, most
// preferred first. Detection itself lives outside this package; the store
// only decides whether a result is written.
type DetectFunc func() []Executable

// DefaultBrowserProfile is the profile assumed when none is configured.
const DefaultBrowserProfile = "openclaw"

// EnsureBrowserDefaults idempotently fills the browser.* section of the
// config document at configPath: enabled defaults to true, defaultProfile
// to "openclaw", and executablePath to the first detected browser. Existing
// user-set values are never overwritten. Every decision is reported through
// emit. Returns whether the document was written.
func EnsureBrowserDefaults(configPath string, detect DetectFunc, emit func(string)) (bool, error) {
	doc := Load(configPath)
	doc.EnsureObject("browser")

	var candidates []Executable
	if detect != nil {
		candidates = detect()
	}
	if len(candidates) == 0 {
		emit("Browser detection: no local Chromium-based browser found.")
	} else {
		summary := make([]string, 0, 3)
		for i, candidate := range candidates {
			if i == 3 {
				break
			}
			summary = append(summary, fmt.Sprintf("%s (%s)", candidate.Kind, candidate.Path))
		}
		emit("Browser detection: found " + strings.Join(summary, ", "))
	}

	changed := false

	if !doc.Get("browser.enabled").IsBool() {
		doc.Set("browser.enabled", true)
		changed = true
	}

	if doc.GetString("browser.defaultProfile") == "" {
		doc.Set("browser.defaultProfile", DefaultBrowserProfile)
		emit("Browser config: set browser.defaultProfile=" + DefaultBrowserProfile)
		changed = true
	}

	if current := doc.GetString("browser.executablePath"); current == "" {
		if len(candidates) > 0 {
			chosen := candidates[0]
			doc.Set("browser.executablePath", chosen.Path)
			emit(fmt.Sprintf("Browser config: set browser.executablePath=%s (%s)", chosen.Path, chosen.Kind))
			changed = true
		} else {
			emit("Browser config: keep browser.executablePath unset (auto detection in OpenClaw runtime).")
		}
	} else {
		emit("Browser config: existing browser.executablePath=" + current)
	}

	if changed {
		if err := doc.Save(configPath); err != nil {
			return false, err
		}
		emit("Browser config defaults ensured.")
	} else {
		emit("Browser config already initialized; no changes.")
	}
	return changed, nil
}

// BrowserMode describes the effective browser integration mode.
type BrowserMode struct {
	Mode           string       `json:"mode"`
	DefaultProfile string       `json:"defaultProfile"`
	ExecutablePath string       `json:"executablePath,omitempty"`
	Detected       []Executable `json:"detectedBrowsers"`
}

// BrowserModeStatus derives the browser mode from a loaded config document.
func BrowserModeStatus(doc *Document, detect DetectFunc) BrowserMode {
	profile := doc.GetString("browser.defaultProfile")
	if profile == "" {
		profile = DefaultBrowserProfile
	}
	mode := DefaultBrowserProfile
	if strings.EqualFold(profile, "chrome") {
		mode = "chrome"
	}
	status := BrowserMode{
		Mode:           mode,
		DefaultProfile: profile,
		ExecutablePath: doc.GetString("browser.executablePath"),
		Detected:       []Executable{},
	}
	if detect != nil {
		status.Detected = detect()
	}
	return status
}

// SetBrowserMode switches browser.defaultProfile between the two supported
// modes. Any other value is rejected without touching the document.
func SetBrowserMode(configPath, mode string, detect DetectFunc) (BrowserMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	if normalized != DefaultBrowserProfile && normalized != "chrome" {
		return BrowserMode{}, fmt.Errorf("unsupported browser mode %q: use 'openclaw' or 'chrome'", mode)
	}

	doc := Load(configPath)
	doc.Set("browser.defaultProfile", normalized)
	if !doc.Get("browser.enabled").IsBool() {
		doc.Set("browser.enabled", true)
	}
	if err := doc.Save(configPath); err != nil {
		return BrowserMode{}, err
	}
	return BrowserModeStatus(doc, detect), nil
}
