// Package oauthlogin drives interactive OAuth sign-in through the OpenClaw
// CLI: discovering which providers support OAuth, running the login command
// under a pseudo-TTY, and verifying that a usable auth profile landed in
// auth-profiles.json afterwards.
package oauthlogin

import (
	"errors"
	"os/exec"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/openclaw/openclaw-desktop/internal/cliexec"
	"github.com/openclaw/openclaw-desktop/internal/configdoc"
	"github.com/openclaw/openclaw-desktop/internal/paths"
	"github.com/openclaw/openclaw-desktop/internal/provider"
)

// Result reports one login attempt. Details carries the human-readable
// transcript; Launched is true only when the provider ended up with a
// verified auth profile.
type Result struct {
	ProviderID  string `json:"providerId"`
	Launched    bool   `json:"launched"`
	CommandHint string `json:"commandHint"`
	Details     string `json:"details"`
}

// InteractiveRunner runs a CLI command under a pseudo-TTY so OAuth flows
// that insist on a terminal still work. cliexec.ExecRunner satisfies it.
type InteractiveRunner interface {
	cliexec.Runner
	RunInteractive(binary string, args ...string) (bool, string, error)
}

// ParseOnboardAuthChoices extracts the auth-choice identifiers from
// `onboard --help` output. The list lives after an "Auth:" marker and
// ends at the next flag description.
func ParseOnboardAuthChoices(helpText string) []string {
	const marker = "Auth:"
	start := strings.Index(helpText, marker)
	if start < 0 {
		return nil
	}
	remaining := helpText[start+len(marker):]
	if end := strings.Index(remaining, "\n  --"); end >= 0 {
		remaining = remaining[:end]
	}
	var choices []string
	for _, item := range strings.Split(strings.TrimSpace(remaining), "|") {
		if item = strings.TrimSpace(item); item != "" {
			choices = append(choices, item)
		}
	}
	return choices
}

// OutputLooksFailed detects cancellation and failure markers in OAuth
// command output that still exited zero.
func OutputLooksFailed(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "canceled") ||
		strings.Contains(lower, "cancelled") ||
		strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "oauth failed") ||
		strings.Contains(lower, "error:")
}

// ListProviders returns the union of the static fallback provider list,
// the providers the CLI reports OAuth support for, and the provider-shaped
// auth choices advertised by `onboard --help`, sorted and de-duplicated.
func ListProviders(runner cliexec.Runner, binary string) []string {
	set := make(map[string]struct{})
	for _, id := range provider.FallbackOAuthProviders {
		if normalized := provider.Normalize(id); normalized != "" {
			set[normalized] = struct{}{}
		}
	}

	if binary != "" {
		if ok, output, err := runner.Run(binary, "models", "status", "--json"); err == nil && ok {
			for _, known := range gjson.Get(output, "auth.providersWithOAuth").Array() {
				if normalized := provider.Normalize(known.String()); normalized != "" {
					set[normalized] = struct{}{}
				}
			}
		}
		if ok, output, err := runner.Run(binary, "onboard", "--help"); err == nil && ok {
			for _, choice := range ParseOnboardAuthChoices(output) {
				if !provider.LooksLikeOAuthProvider(choice) {
					continue
				}
				if normalized := provider.Normalize(choice); normalized != "" {
					set[normalized] = struct{}{}
				}
			}
		}
	}

	providers := make([]string, 0, len(set))
	for id := range set {
		providers = append(providers, id)
	}
	sort.Strings(providers)
	return providers
}

// HasAuthProfile reports whether any profile in auth-profiles.json belongs
// to the given provider.
func HasAuthProfile(providerID string) bool {
	return hasAuthProfile(paths.AuthProfilesPath(), providerID)
}

func hasAuthProfile(path, providerID string) bool {
	doc := configdoc.Load(path)
	profiles := doc.Get("profiles")
	if !profiles.IsObject() {
		return false
	}
	found := false
	profiles.ForEach(func(_, profile gjson.Result) bool {
		if profile.Get("provider").String() == providerID {
			found = true
			return false
		}
		return true
	})
	return found
}

// Login runs the full OAuth sign-in sequence for one provider: enable the
// provider plugin if it has one, run the login command under a TTY, verify
// the auth profile appeared, and switch the default model for providers
// that ship with one.
func Login(runner InteractiveRunner, binary, rawProviderID string) Result {
	raw := strings.TrimSpace(rawProviderID)
	providerID := provider.Normalize(raw)
	if providerID == "" {
		return Result{
			ProviderID:  raw,
			CommandHint: "openclaw models auth login --provider <provider-id>",
			Details:     "Provider id is required.",
		}
	}
	hint := "openclaw models auth login --provider " + providerID

	if binary == "" {
		return Result{
			ProviderID:  providerID,
			CommandHint: hint,
			Details:     "openclaw binary not found. Install OpenClaw CLI first.",
		}
	}

	var details []string
	hadProfileBefore := HasAuthProfile(providerID)

	if pluginID := provider.PluginID(providerID); pluginID != "" {
		ok, output, err := runner.Run(binary, "plugins", "enable", pluginID)
		switch {
		case err != nil:
			details = append(details, "WARN: failed to enable provider plugin "+pluginID+": "+err.Error())
		case !ok && output == "":
			details = append(details, "WARN: failed to enable provider plugin "+pluginID+".")
		case !ok:
			details = append(details, "WARN: failed to enable provider plugin "+pluginID+": "+output)
		default:
			details = append(details, "Provider plugin ensured: "+pluginID)
		}
	}

	ok, output, err := runner.RunInteractive(binary, "models", "auth", "login", "--provider", providerID)
	if err != nil {
		details = append(details, err.Error())
		return Result{ProviderID: providerID, CommandHint: hint, Details: strings.Join(details, "\n")}
	}
	if !ok {
		if output == "" {
			details = append(details, "OAuth login command failed.")
		} else {
			details = append(details, output)
		}
		return Result{ProviderID: providerID, CommandHint: hint, Details: strings.Join(details, "\n")}
	}

	ready := HasAuthProfile(providerID)
	if !ready || OutputLooksFailed(output) {
		details = append(details, "OAuth command finished, but provider auth profile was not ready.")
		if strings.TrimSpace(output) != "" {
			details = append(details, output)
		}
		return Result{ProviderID: providerID, CommandHint: hint, Details: strings.Join(details, "\n")}
	}

	if modelID := provider.DefaultModel(providerID); modelID != "" {
		setOK, setOutput, setErr := runner.Run(binary, "models", "set", modelID)
		switch {
		case setErr != nil:
			details = append(details, "OAuth completed, but failed to switch default model to "+modelID+": "+setErr.Error())
		case !setOK && strings.TrimSpace(setOutput) == "":
			details = append(details, "OAuth completed, but failed to switch default model to "+modelID+".")
		case !setOK:
			details = append(details, "OAuth completed, but failed to switch default model to "+modelID+": "+setOutput)
		default:
			details = append(details, "Default model switched to "+modelID+".")
		}
		if setErr != nil || !setOK {
			return Result{ProviderID: providerID, CommandHint: hint, Details: strings.Join(details, "\n")}
		}
	}

	if hadProfileBefore {
		details = append(details, "OAuth login completed (existing profile refreshed/reused).")
	} else {
		details = append(details, "OAuth login completed and provider auth is ready.")
	}
	log.Infof("oauth login completed for provider %s", providerID)
	return Result{ProviderID: providerID, Launched: true, CommandHint: hint, Details: strings.Join(details, "\n")}
}

// commandExists probes a CLI with a cheap invocation. A non-zero exit
// still counts as present unless the output indicates the path is not an
// executable at all.
func commandExists(binary string, args ...string) bool {
	out, err := exec.Command(binary, args...).CombinedOutput()
	if err == nil {
		return true
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	lower := strings.ToLower(string(out))
	return !strings.Contains(lower, "permission denied") && !strings.Contains(lower, "is a directory")
}
