// Package gateway supervises the single long-lived `openclaw gateway run`
// service process and reports readiness of its local web endpoint. The
// supervisor owns the one child-process slot; callers never spawn the
// gateway themselves.
package gateway

import (
	"fmt"
	"net/http"
	"os/exec"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/openclaw/openclaw-desktop/internal/paths"
)

// Port is the fixed local port the gateway web endpoint listens on.
const Port = "18789"

const (
	probeTimeout = 1200 * time.Millisecond
	pollInterval = 400 * time.Millisecond
	pollAttempts = 30
)

// process is the supervised child. Alive must not block.
type process interface {
	Alive() bool
}

// execProcess wraps an exec.Cmd whose exit is observed by a reaper
// goroutine so liveness checks never block.
type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *execProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Supervisor owns the singleton gateway process slot. The zero value is not
// usable; construct with NewSupervisor. The mutex guards only the slot: it
// is never held across a spawn wait, a probe, or a CLI call.
type Supervisor struct {
	mu    sync.Mutex
	child process

	// spawn launches a detached gateway process for the given binary.
	// Overridable in tests.
	spawn func(binary string) (process, error)

	// probe reports whether the web endpoint answered within the probe
	// timeout. Overridable in tests.
	probe func() bool
}

// NewSupervisor returns a supervisor that spawns the real gateway process
// and probes the official web URL.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		spawn: spawnGateway,
		probe: probeWeb,
	}
}

func spawnGateway(binary string) (process, error) {
	cmd := exec.Command(binary, "gateway", "run", "--allow-unconfigured", "--port", Port)
	// Stdout/Stderr stay nil so the child's streams go to the null device.
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to run `openclaw gateway run`: %w", err)
	}
	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func probeWeb() bool {
	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Get(paths.OfficialWebURL)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// Alive reports whether the supervised process is currently running,
// clearing the slot when it has exited.
func (s *Supervisor) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.child == nil {
		return false
	}
	if s.child.Alive() {
		return true
	}
	s.child = nil
	return false
}

// SpawnIfAbsent starts the gateway when no live child occupies the slot.
// Returns true only when a new process was actually launched; a live child
// makes this a no-op success.
func (s *Supervisor) SpawnIfAbsent(binary string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.child != nil {
		if s.child.Alive() {
			return false, nil
		}
		s.child = nil
	}

	child, err := s.spawn(binary)
	if err != nil {
		return false, err
	}
	s.child = child
	log.Debugf("gateway process spawned on port %s", Port)
	return true, nil
}

// WebStatus is the readiness report for the gateway's local web endpoint.
// Every field is populated even on failure so the shell can render partial
// progress.
type WebStatus struct {
	Ready       bool   `json:"ready"`
	Installed   bool   `json:"installed"`
	Running     bool   `json:"running"`
	Started     bool   `json:"started"`
	URL         string `json:"url"`
	CommandHint string `json:"commandHint"`
	Message     string `json:"message"`
	Error       string `json:"error,omitempty"`
}

// EnsureWebReady brings the gateway web endpoint up: probe first, then
// spawn-if-absent and poll. resolveBinary supplies the CLI path and may
// return "" for "not installed", which fails closed.
func (s *Supervisor) EnsureWebReady(resolveBinary func() string) WebStatus {
	status := WebStatus{
		URL:         paths.DashboardURL(),
		CommandHint: "openclaw gateway",
	}

	if s.probe() {
		status.Ready = true
		status.Installed = true
		status.Running = true
		status.Message = "Official local web is already reachable."
		return status
	}

	binary := resolveBinary()
	if binary == "" {
		status.Message = "openclaw binary not found."
		status.Error = "Install OpenClaw first, then retry."
		return status
	}
	status.Installed = true

	started, err := s.SpawnIfAbsent(binary)
	if err != nil {
		status.Message = "Failed to start local gateway."
		status.Error = err.Error()
		return status
	}
	status.Started = started

	for i := 0; i < pollAttempts; i++ {
		if s.probe() {
			status.Ready = true
			status.Running = true
			if started {
				status.Message = "Official local web started successfully."
			} else {
				status.Message = "Official local web is reachable."
			}
			return status
		}
		time.Sleep(pollInterval)
	}

	status.Running = s.Alive()
	status.Message = "Gateway started, but local web did not become ready in time."
	status.Error = "Timeout while waiting for " + paths.OfficialWebURL
	return status
}
