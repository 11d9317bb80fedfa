// Package bootstrap drives the end-to-end first-run sequence: resolve or
// install the OpenClaw CLI, run setup and onboarding, federate local Codex
// credentials, and bring the local gateway web endpoint up. The sequence
// is best effort and never panics; every step failure is downgraded to a
// log line unless it makes the whole bootstrap meaningless.
package bootstrap

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/openclaw/openclaw-desktop/internal/authfile"
	"github.com/openclaw/openclaw-desktop/internal/browserdetect"
	"github.com/openclaw/openclaw-desktop/internal/cliexec"
	"github.com/openclaw/openclaw-desktop/internal/configdoc"
	"github.com/openclaw/openclaw-desktop/internal/federation"
	"github.com/openclaw/openclaw-desktop/internal/gateway"
	"github.com/openclaw/openclaw-desktop/internal/installer"
	"github.com/openclaw/openclaw-desktop/internal/paths"
	"github.com/openclaw/openclaw-desktop/internal/relay"
)

// Sink receives bootstrap log lines as they are produced, so a UI can
// stream progress while Run is still working. May be nil.
type Sink func(line string)

// Status is the terminal report of one bootstrap run.
type Status struct {
	Ready       bool              `json:"ready"`
	Installed   bool              `json:"installed"`
	Initialized bool              `json:"initialized"`
	Web         gateway.WebStatus `json:"web"`
	Message     string            `json:"message"`
	Logs        []string          `json:"logs"`
	Error       string            `json:"error,omitempty"`
}

// Engine owns the bootstrap collaborators. All fields are funcs so tests
// can substitute each stage; NewEngine wires the real implementations.
type Engine struct {
	Runner          cliexec.Runner
	Resolve         func() string
	InstallBundle   func(emit func(string)) (bool, error)
	InstallNetwork  func(emit func(string)) error
	BrowserDefaults func(emit func(string)) error
	RelayEnsure     func(binary string, emit func(string))
	CodexDetected   func() bool
	Federate        func(setDefaultModel bool) (*federation.Result, error)
	EnsureWeb       func(resolveBinary func() string) gateway.WebStatus
	Sink            Sink

	mu sync.Mutex
}

// NewEngine builds an engine wired to the real installer, gateway
// supervisor, and credential federation.
func NewEngine(supervisor *gateway.Supervisor, sink Sink) *Engine {
	resolver := installer.NewResolver()
	return &Engine{
		Runner:  cliexec.ExecRunner{},
		Resolve: resolver.Resolve,
		InstallBundle: func(emit func(string)) (bool, error) {
			return installer.InstallFromBundle(installer.BundleDir(), emit)
		},
		InstallNetwork: func(emit func(string)) error {
			return installer.InstallFromNetwork(cliexec.ExecRunner{}, emit)
		},
		BrowserDefaults: func(emit func(string)) error {
			_, err := configdoc.EnsureBrowserDefaults(paths.ConfigPath(), browserdetect.Detect, emit)
			return err
		},
		RelayEnsure: func(binary string, emit func(string)) {
			relay.EnsureInstalled(cliexec.ExecRunner{}, binary, emit)
		},
		CodexDetected: func() bool { return authfile.DetectCodex().Detected },
		Federate: func(setDefaultModel bool) (*federation.Result, error) {
			return federation.NewCodexFederator().Federate(setDefaultModel)
		},
		EnsureWeb: supervisor.EnsureWebReady,
		Sink:      sink,
	}
}

// Run executes the full bootstrap sequence. Only one run is allowed at a
// time; concurrent callers queue behind the mutex. Callers who need it to
// be asynchronous run it in their own goroutine.
func (e *Engine) Run() *Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	runID := uuid.NewString()[:8]
	logger := log.WithField("bootstrap", runID)

	var logs []string
	push := func(line string) {
		logger.Info(line)
		logs = append(logs, line)
		if e.Sink != nil {
			e.Sink(line)
		}
	}

	push("Bootstrap started.")
	installed := e.Resolve() != ""
	installedBefore := installed
	installPerformed := false

	if !installed {
		push("OpenClaw CLI not found. Auto install will start.")
		installPerformed = true

		bundled, err := e.InstallBundle(push)
		switch {
		case err != nil:
			push("WARN: " + err.Error())
			push("Fallback to online installer.")
		case bundled:
			installed = e.Resolve() != ""
		default:
			push("Offline payload unavailable, fallback to online installer.")
		}

		if !installed {
			push("Run online installer...")
			if err := e.InstallNetwork(push); err != nil {
				return &Status{
					Web:     failedWeb("OpenClaw install failed.", err.Error()),
					Message: "Auto install failed.",
					Logs:    logs,
					Error:   err.Error(),
				}
			}
			installed = e.Resolve() != ""
		}
	}

	binary := e.Resolve()
	if binary == "" {
		return &Status{
			Web:     failedWeb("OpenClaw CLI still not found after install.", "Binary not found"),
			Message: "OpenClaw bootstrap failed.",
			Logs:    logs,
			Error:   "openclaw binary not found",
		}
	}

	push("Using CLI binary: " + binary)
	if err := e.BrowserDefaults(push); err != nil {
		push("WARN: failed to ensure browser defaults: " + err.Error())
	}
	e.RelayEnsure(binary, push)

	// Fast path for machines that already went through a full bootstrap:
	// a live gateway plus usable model auth means nothing else to do.
	if installedBefore && !installPerformed {
		push("Checking existing gateway status...")
		if err := e.runCLI(push, binary, "gateway", "start"); err != nil {
			push("WARN: " + err.Error())
		}
		authReady := e.modelsAuthReady(push, binary)
		web := e.EnsureWeb(e.Resolve)
		if web.Ready && authReady {
			return &Status{
				Ready:       true,
				Installed:   true,
				Initialized: true,
				Web:         web,
				Message:     "OpenClaw is ready.",
				Logs:        logs,
			}
		}
		push("Gateway/auth is not ready; running auto-repair setup.")
	}

	push("Running setup...")
	setupOK := true
	if err := e.runCLI(push, binary, "setup"); err != nil {
		push("WARN: " + err.Error())
		setupOK = false
	}

	codexDetected := e.CodexDetected()
	if codexDetected {
		push("Onboarding auth choice: skip (local codex detected; will sync local Codex auth after onboard)")
	} else {
		push("Onboarding auth choice: skip (local codex not detected)")
	}

	onboardArgs := []string{
		"onboard",
		"--non-interactive",
		"--accept-risk",
		"--mode", "local",
		"--auth-choice", "skip",
		"--install-daemon",
		"--skip-channels",
		"--skip-skills",
		"--skip-ui",
		"--skip-health",
	}

	push("Running onboard...")
	onboardOK := true
	if err := e.runCLI(push, binary, onboardArgs...); err != nil {
		push("WARN: " + err.Error())
		onboardOK = false
	}

	if !onboardOK {
		push("Onboard failed, trying gateway install --force + start...")
		installOK := true
		if err := e.runCLI(push, binary, "gateway", "install", "--force"); err != nil {
			push("WARN: " + err.Error())
			installOK = false
		}
		startOK := true
		if err := e.runCLI(push, binary, "gateway", "start"); err != nil {
			push("WARN: " + err.Error())
			startOK = false
		}
		onboardOK = installOK && startOK
	}

	if codexDetected {
		push("Local Codex auth detected, syncing into OpenClaw auth-profiles...")
		if result, err := e.Federate(true); err != nil {
			push("WARN: failed to sync local Codex auth: " + err.Error())
		} else {
			push("OK: " + result.Message)
			if result.ProfileID != "" {
				push("Codex profile synced: " + result.ProfileID)
			}
			if result.Model != "" {
				push("Default model after sync: " + result.Model)
			}
		}
	}

	push("Ensuring gateway start...")
	if err := e.runCLI(push, binary, "gateway", "start"); err != nil {
		push("WARN: " + err.Error())
	}

	modelAuthReady := e.modelsAuthReady(push, binary)
	initialized := onboardOK && modelAuthReady
	web := e.EnsureWeb(e.Resolve)
	ready := installed && initialized && web.Ready

	if !setupOK {
		push("WARN: openclaw setup failed; continuing because onboard/model-auth checks decide readiness.")
	}

	status := &Status{
		Ready:       ready,
		Installed:   installed,
		Initialized: initialized,
		Web:         web,
		Logs:        logs,
	}
	switch {
	case ready:
		status.Message = "OpenClaw is installed and official local web is ready."
	case !onboardOK:
		status.Message = "OpenClaw installed, but initialization failed."
		status.Error = "Initialization steps failed (onboard/gateway install)"
	case !modelAuthReady:
		status.Message = "OpenClaw initialized, but no usable model auth detected."
		status.Error = "Model auth is not ready (openclaw models status --check failed)"
	default:
		status.Message = "OpenClaw bootstrap incomplete. Check logs and retry."
		status.Error = web.Error
	}
	return status
}

// runCLI runs one CLI subcommand and logs "OK: openclaw <args>" on
// success. A non-zero exit becomes an error carrying the command line and
// the clipped output.
func (e *Engine) runCLI(push func(string), binary string, args ...string) error {
	ok, output, err := e.Runner.Run(binary, args...)
	if err != nil {
		return err
	}
	cmd := "openclaw " + strings.Join(args, " ")
	if ok {
		push("OK: " + cmd)
		return nil
	}
	detail := output
	if detail == "" {
		detail = "no output"
	}
	return &commandError{cmd: cmd, detail: detail}
}

type commandError struct {
	cmd    string
	detail string
}

func (e *commandError) Error() string {
	return e.cmd + " failed: " + e.detail
}

// modelsAuthReady reports whether at least one model provider has usable
// credentials, per `openclaw models status --check`.
func (e *Engine) modelsAuthReady(push func(string), binary string) bool {
	ok, output, err := e.Runner.Run(binary, "models", "status", "--check")
	if err != nil {
		push("WARN: failed to run openclaw models status --check: " + err.Error())
		return false
	}
	if ok {
		push("OK: openclaw models status --check")
		return true
	}
	detail := output
	if strings.TrimSpace(detail) == "" {
		detail = "no output"
	}
	push("WARN: openclaw models status --check failed: " + detail)
	return false
}

func failedWeb(message, errText string) gateway.WebStatus {
	return gateway.WebStatus{
		URL:         paths.OfficialWebURL,
		CommandHint: "openclaw gateway",
		Message:     message,
		Error:       errText,
	}
}
