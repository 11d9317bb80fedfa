// Package main provides the entry point for the OpenClaw desktop daemon.
// The daemon backs the desktop shell: it installs and bootstraps the
// OpenClaw CLI, supervises the local gateway, federates local coding-CLI
// credentials, and exposes a loopback control API the shell talks to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/openclaw/openclaw-desktop/internal/api"
	"github.com/openclaw/openclaw-desktop/internal/bootstrap"
	"github.com/openclaw/openclaw-desktop/internal/browser"
	"github.com/openclaw/openclaw-desktop/internal/buildinfo"
	"github.com/openclaw/openclaw-desktop/internal/gateway"
	"github.com/openclaw/openclaw-desktop/internal/logging"
	"github.com/openclaw/openclaw-desktop/internal/paths"
	"github.com/openclaw/openclaw-desktop/internal/watcher"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	fmt.Printf("OpenClaw Desktop Daemon Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var bootstrapOnly bool
	var openWeb bool
	var logToFile bool
	var logsMaxTotalSizeMB int

	flag.BoolVar(&bootstrapOnly, "bootstrap", false, "Run the bootstrap sequence once and exit")
	flag.BoolVar(&openWeb, "open-web", false, "Open the gateway dashboard in the default browser once it is ready")
	flag.BoolVar(&logToFile, "log-file", false, "Write logs to a rotating file under the OpenClaw state directory")
	flag.IntVar(&logsMaxTotalSizeMB, "logs-max-mb", 0, "Cap the total size of the log directory in MB (0 disables cleanup)")
	flag.Parse()

	// Load environment variables from .env if present.
	if wd, err := os.Getwd(); err == nil {
		if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
			if !errors.Is(errLoad, os.ErrNotExist) {
				log.WithError(errLoad).Warn("failed to load .env file")
			}
		}
	}

	if err := logging.ConfigureLogOutput(logging.Options{ToFile: logToFile, MaxTotalSizeMB: logsMaxTotalSizeMB}); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervisor := gateway.NewSupervisor()

	if bootstrapOnly {
		runBootstrapOnce(supervisor, openWeb)
		return
	}

	server := api.NewServer(supervisor)

	fileWatcher, err := watcher.NewWatcher(paths.ConfigPath(), paths.AuthProfilesPath(), func(event watcher.Event) {
		server.Hub().Broadcast(api.EventDocumentChange, event)
	})
	if err != nil {
		log.Errorf("failed to create file watcher: %v", err)
		return
	}
	if err := fileWatcher.Start(ctx); err != nil {
		log.Warnf("file watching unavailable: %v", err)
	}
	defer func() {
		_ = fileWatcher.Stop()
	}()

	if openWeb {
		go func() {
			engine := bootstrap.NewEngine(supervisor, nil)
			status := engine.Run()
			if status.Ready {
				if errOpen := browser.OpenDashboard(); errOpen != nil {
					log.Warnf("failed to open dashboard: %v", errOpen)
				}
			} else {
				log.Warnf("bootstrap finished without readiness: %s", status.Message)
			}
		}()
	}

	if err := server.Start(ctx); err != nil {
		log.Errorf("control API exited: %v", err)
	}
}

// runBootstrapOnce drives one bootstrap pass with log lines mirrored to
// stdout, for running from a terminal or a packaging hook.
func runBootstrapOnce(supervisor *gateway.Supervisor, openWeb bool) {
	engine := bootstrap.NewEngine(supervisor, func(line string) {
		fmt.Println(line)
	})
	status := engine.Run()

	if status.Ready {
		fmt.Println(status.Message)
		if openWeb {
			if err := browser.OpenDashboard(); err != nil {
				log.Warnf("failed to open dashboard: %v", err)
			}
		}
		return
	}

	fmt.Println(status.Message)
	if status.Error != "" {
		fmt.Println("error: " + status.Error)
	}
	os.Exit(1)
}
