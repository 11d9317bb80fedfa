// Package api exposes the desktop control API: a loopback HTTP surface
// the desktop shell drives bootstrap, OAuth, and diagnostics through,
// plus a websocket stream for live progress events.
package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/openclaw/openclaw-desktop/internal/bootstrap"
	"github.com/openclaw/openclaw-desktop/internal/cliexec"
	"github.com/openclaw/openclaw-desktop/internal/gateway"
	"github.com/openclaw/openclaw-desktop/internal/installer"
	"github.com/openclaw/openclaw-desktop/internal/logging"
)

// DefaultAddr is where the control API listens. Loopback only; the
// desktop shell is the sole intended client.
const DefaultAddr = "127.0.0.1:18790"

// Server hosts the control API.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	hub        *Hub

	runner     cliexec.ExecRunner
	resolve    func() string
	supervisor *gateway.Supervisor
	bootEngine *bootstrap.Engine
}

// NewServer wires the control API against a gateway supervisor. Bootstrap
// log lines are forwarded to the event stream as they happen.
func NewServer(supervisor *gateway.Supervisor) *Server {
	hub := NewHub()
	s := &Server{
		hub:        hub,
		resolve:    installer.NewResolver().Resolve,
		supervisor: supervisor,
	}
	s.bootEngine = bootstrap.NewEngine(supervisor, func(line string) {
		hub.Broadcast(EventBootstrapLog, line)
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery())
	s.registerRoutes(engine)
	s.engine = engine
	return s
}

// Hub returns the event hub so other components (the file watcher) can
// publish events to connected clients.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr resolves the listen address, honoring OPENCLAW_DESKTOP_ADDR.
func Addr() string {
	if addr := strings.TrimSpace(os.Getenv("OPENCLAW_DESKTOP_ADDR")); addr != "" {
		return addr
	}
	return DefaultAddr
}

// Start runs the HTTP server until ctx is canceled, then drains it.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("control API listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	v1 := engine.Group("/v1")

	v1.GET("/version", s.handleVersion)
	v1.GET("/events", s.handleEvents)

	v1.POST("/bootstrap", s.handleBootstrap)

	v1.GET("/web", s.handleWebStatus)
	v1.POST("/web/open", s.handleWebOpen)

	v1.GET("/browser/mode", s.handleBrowserMode)
	v1.PUT("/browser/mode", s.handleSetBrowserMode)
	v1.GET("/browser/relay", s.handleRelayStatus)
	v1.POST("/browser/relay/prepare", s.handleRelayPrepare)
	v1.GET("/browser/relay/diagnose", s.handleRelayDiagnose)

	v1.GET("/oauth/providers", s.handleOAuthProviders)
	v1.POST("/oauth/login", s.handleOAuthLogin)

	v1.GET("/codex/auth", s.handleCodexAuth)
	v1.POST("/codex/reuse", s.handleCodexReuse)
	v1.POST("/codex/connectivity", s.handleCodexConnectivity)

	v1.GET("/tools", s.handleTools)
	v1.GET("/ollama", s.handleOllama)

	v1.POST("/api-key", s.handleSaveAPIKey)
}
