// Package relay manages the browser relay extension assets through the CLI
// and diagnoses relay connectivity problems. Everything here is best
// effort: a broken relay degrades browser integration, never the bootstrap.
package relay

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/openclaw/openclaw-desktop/internal/cliexec"
	"github.com/openclaw/openclaw-desktop/internal/configdoc"
)

// CommandHint is shown to users who want to repair the relay manually.
const CommandHint = "openclaw browser extension install"

const defaultRelayURL = "http://127.0.0.1:18792"

// Status describes whether the relay extension assets are in place.
type Status struct {
	Installed   bool   `json:"installed"`
	Path        string `json:"path,omitempty"`
	CommandHint string `json:"commandHint"`
	Message     string `json:"message"`
	Error       string `json:"error,omitempty"`
}

// ExtractPath pulls the extension path out of `browser extension path`
// output, skipping advisory lines the CLI prints around it.
func ExtractPath(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Docs:") || strings.HasPrefix(line, "Next:") || strings.HasPrefix(line, "- ") {
			continue
		}
		if strings.EqualFold(line, "Copied to clipboard.") {
			continue
		}
		if strings.Contains(strings.ToLower(line), "chrome extension is not installed") {
			continue
		}
		return line
	}
	return ""
}

// CheckStatus asks the CLI where the relay extension lives.
func CheckStatus(runner cliexec.Runner, binary string) Status {
	status := Status{CommandHint: CommandHint}
	ok, output, err := runner.Run(binary, "browser", "extension", "path")
	if err != nil {
		status.Message = "Failed to check browser relay extension."
		status.Error = err.Error()
		return status
	}
	if !ok {
		status.Message = "Browser relay extension is not installed."
		status.Error = strings.TrimSpace(output)
		return status
	}
	if path := ExtractPath(output); path != "" {
		status.Installed = true
		status.Path = path
		status.Message = "Browser relay extension is ready."
		return status
	}
	status.Message = "Relay path is unavailable."
	status.Error = strings.TrimSpace(output)
	return status
}

// EnsureInstalled prepares the relay extension assets during bootstrap.
// Failures are reported through emit with a WARN prefix and swallowed.
func EnsureInstalled(runner cliexec.Runner, binary string, emit func(string)) {
	emit("Ensuring browser relay extension assets are prepared...")

	ok, output, err := runner.Run(binary, "browser", "extension", "install")
	if err != nil {
		emit("WARN: failed to run browser relay extension install command: " + err.Error())
		return
	}
	if !ok {
		detail := strings.TrimSpace(output)
		if detail == "" {
			detail = "no output"
		}
		emit("WARN: failed to prepare browser relay extension: " + detail)
		return
	}

	path := ExtractPath(output)
	if path == "" {
		path = CheckStatus(runner, binary).Path
	}
	if path != "" {
		emit("Browser relay extension ready at " + path)
	} else {
		emit("Browser relay extension install command completed.")
	}
}

// Prepare runs the install command on demand and reports the resulting
// status, for the shell's repair button.
func Prepare(runner cliexec.Runner, binary string) Status {
	ok, output, err := runner.Run(binary, "browser", "extension", "install")
	if err != nil {
		return Status{CommandHint: CommandHint, Message: "Failed to prepare browser relay extension.", Error: err.Error()}
	}
	if !ok {
		detail := strings.TrimSpace(output)
		if detail == "" {
			detail = "openclaw browser extension install failed"
		}
		return Status{CommandHint: CommandHint, Message: "Failed to prepare browser relay extension.", Error: detail}
	}

	status := CheckStatus(runner, binary)
	if status.Installed {
		status.Message = "Browser relay extension prepared."
	} else {
		status.Message = "Install command finished, but relay extension path is still unavailable."
		if status.Error == "" && strings.TrimSpace(output) != "" {
			status.Error = strings.TrimSpace(output)
		}
	}
	return status
}

// Diagnostic is the relay health report: whether the local relay answers,
// whether the extension is connected to it, and how many tabs are attached.
type Diagnostic struct {
	RelayURL           string `json:"relayUrl"`
	RelayReachable     bool   `json:"relayReachable"`
	ExtensionConnected *bool  `json:"extensionConnected,omitempty"`
	TabsCount          int    `json:"tabsCount"`
	LikelyCause        string `json:"likelyCause"`
	Detail             string `json:"detail"`
	CommandHint        string `json:"commandHint"`
}

// RelayURLFromConfig resolves the relay endpoint from the chrome profile's
// cdpUrl or cdpPort, defaulting to the standard local port.
func RelayURLFromConfig(doc *configdoc.Document) string {
	if url := doc.GetString("browser.profiles.chrome.cdpUrl"); url != "" {
		return strings.TrimRight(url, "/")
	}
	port := doc.Get("browser.profiles.chrome.cdpPort").Int()
	if port > 0 && port <= 65535 {
		return fmt.Sprintf("http://127.0.0.1:%d", port)
	}
	return defaultRelayURL
}

// TabsCount parses the tab list from `browser tabs --json` output.
func TabsCount(output string) int {
	if !gjson.Valid(strings.TrimSpace(output)) {
		return 0
	}
	tabs := gjson.Get(strings.TrimSpace(output), "tabs")
	if !tabs.IsArray() {
		return 0
	}
	return len(tabs.Array())
}

// Diagnose probes the relay endpoint, the extension status, and the
// attached chrome tabs, then classifies the most likely failure cause.
func Diagnose(runner cliexec.Runner, binary string, doc *configdoc.Document) Diagnostic {
	diag := Diagnostic{
		RelayURL:    RelayURLFromConfig(doc),
		CommandHint: "openclaw browser --browser-profile chrome tabs --json",
	}
	if binary == "" {
		diag.LikelyCause = "openclaw CLI is not installed"
		diag.Detail = "No openclaw executable detected; cannot diagnose the browser relay."
		return diag
	}

	var details []string
	client := &http.Client{Timeout: 1500 * time.Millisecond}

	if resp, err := client.Head(diag.RelayURL + "/"); err == nil {
		diag.RelayReachable = resp.StatusCode >= 200 && resp.StatusCode < 300
		_ = resp.Body.Close()
	}
	if diag.RelayReachable {
		connected, detail := extensionConnected(client, diag.RelayURL)
		diag.ExtensionConnected = connected
		if detail != "" {
			details = append(details, detail)
		}
	} else {
		details = append(details, "relay endpoint unreachable: "+diag.RelayURL+"/")
	}

	ok, output, err := runner.Run(binary, "browser", "--browser-profile", "chrome", "tabs", "--json")
	switch {
	case err != nil:
		details = append(details, "tabs check failed: "+err.Error())
	case !ok:
		if strings.TrimSpace(output) == "" {
			details = append(details, "failed to list chrome profile tabs")
		} else {
			details = append(details, strings.TrimSpace(output))
		}
	default:
		diag.TabsCount = TabsCount(output)
		if diag.TabsCount == 0 {
			details = append(details, "no chrome tabs are currently attached")
		}
	}

	diag.LikelyCause = classifyCause(diag)
	if diag.ExtensionConnected != nil && *diag.ExtensionConnected && diag.TabsCount == 0 {
		details = append(details, "common causes: the tab has DevTools open, another automation tool holds it, or multiple relay extension instances are loaded")
	}
	diag.Detail = strings.Join(details, " | ")
	return diag
}

func extensionConnected(client *http.Client, relayURL string) (*bool, string) {
	resp, err := client.Get(relayURL + "/extension/status")
	if err != nil {
		return nil, "extension/status request failed: " + err.Error()
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Sprintf("unexpected extension/status response: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return nil, "extension/status read failed: " + err.Error()
	}
	connected := gjson.GetBytes(body, "connected")
	if !connected.Exists() {
		log.Debugf("extension/status payload missing connected field: %s", body)
		return nil, "could not parse extension/status response"
	}
	value := connected.Bool()
	return &value, ""
}

func classifyCause(diag Diagnostic) string {
	switch {
	case !diag.RelayReachable:
		return "local relay service unreachable"
	case diag.ExtensionConnected != nil && !*diag.ExtensionConnected:
		return "extension is not connected to the local relay"
	case diag.ExtensionConnected != nil && *diag.ExtensionConnected && diag.TabsCount == 0:
		return "extension connected, but tab attachment failed"
	case diag.TabsCount > 0:
		return "relay is working"
	}
	return "incomplete status, retry the diagnostic"
}
