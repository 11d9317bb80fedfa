package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openclaw/openclaw-desktop/internal/authfile"
	"github.com/openclaw/openclaw-desktop/internal/browser"
	"github.com/openclaw/openclaw-desktop/internal/browserdetect"
	"github.com/openclaw/openclaw-desktop/internal/buildinfo"
	"github.com/openclaw/openclaw-desktop/internal/configdoc"
	"github.com/openclaw/openclaw-desktop/internal/federation"
	"github.com/openclaw/openclaw-desktop/internal/logging"
	"github.com/openclaw/openclaw-desktop/internal/oauthlogin"
	"github.com/openclaw/openclaw-desktop/internal/ollama"
	"github.com/openclaw/openclaw-desktop/internal/paths"
	"github.com/openclaw/openclaw-desktop/internal/relay"
)

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":   buildinfo.Version,
		"commit":    buildinfo.Commit,
		"buildDate": buildinfo.BuildDate,
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	logging.SkipGinRequestLogging(c)
	s.hub.Serve(c.Writer, c.Request)
}

// handleBootstrap runs the full bootstrap sequence. The request blocks
// until the sequence finishes; progress streams over /v1/events meanwhile.
func (s *Server) handleBootstrap(c *gin.Context) {
	logging.RequestEntry(c).Info("bootstrap requested over control API")
	c.JSON(http.StatusOK, s.bootEngine.Run())
}

func (s *Server) handleWebStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.supervisor.EnsureWebReady(s.resolve))
}

func (s *Server) handleWebOpen(c *gin.Context) {
	status := s.supervisor.EnsureWebReady(s.resolve)
	if !status.Ready {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	if err := browser.OpenDashboard(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"opened": true, "url": paths.DashboardURL()})
}

func (s *Server) handleBrowserMode(c *gin.Context) {
	doc := configdoc.Load(paths.ConfigPath())
	c.JSON(http.StatusOK, configdoc.BrowserModeStatus(doc, browserdetect.Detect))
}

func (s *Server) handleSetBrowserMode(c *gin.Context) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	mode, err := configdoc.SetBrowserMode(paths.ConfigPath(), body.Mode, browserdetect.Detect)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mode)
}

func (s *Server) handleRelayStatus(c *gin.Context) {
	binary := s.resolve()
	if binary == "" {
		c.JSON(http.StatusOK, relay.Status{
			CommandHint: relay.CommandHint,
			Message:     "openclaw binary not found.",
			Error:       "Install OpenClaw first, then retry.",
		})
		return
	}
	c.JSON(http.StatusOK, relay.CheckStatus(s.runner, binary))
}

func (s *Server) handleRelayPrepare(c *gin.Context) {
	binary := s.resolve()
	if binary == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "openclaw binary not found"})
		return
	}
	c.JSON(http.StatusOK, relay.Prepare(s.runner, binary))
}

func (s *Server) handleRelayDiagnose(c *gin.Context) {
	doc := configdoc.Load(paths.ConfigPath())
	c.JSON(http.StatusOK, relay.Diagnose(s.runner, s.resolve(), doc))
}

func (s *Server) handleOAuthProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": oauthlogin.ListProviders(s.runner, s.resolve())})
}

func (s *Server) handleOAuthLogin(c *gin.Context) {
	var body struct {
		ProviderID string `json:"providerId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	logging.RequestEntry(c).WithField("provider", body.ProviderID).Info("interactive OAuth login requested")
	c.JSON(http.StatusOK, oauthlogin.Login(s.runner, s.resolve(), body.ProviderID))
}

func (s *Server) handleCodexAuth(c *gin.Context) {
	c.JSON(http.StatusOK, authfile.DetectCodex())
}

func (s *Server) handleCodexReuse(c *gin.Context) {
	var body struct {
		SetDefaultModel *bool `json:"setDefaultModel"`
	}
	_ = c.ShouldBindJSON(&body)
	setModel := body.SetDefaultModel == nil || *body.SetDefaultModel

	result, err := federation.NewCodexFederator().Federate(setModel)
	if err != nil {
		c.JSON(http.StatusOK, federation.Result{
			Message: "Failed to reuse local Codex auth.",
			Error:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCodexConnectivity(c *gin.Context) {
	c.JSON(http.StatusOK, oauthlogin.ValidateCodexConnectivity())
}

func (s *Server) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": oauthlogin.DetectLocalTools()})
}

func (s *Server) handleOllama(c *gin.Context) {
	c.JSON(http.StatusOK, ollama.Check())
}

// handleSaveAPIKey validates an API-key submission. Persisting the key is
// the CLI's job; this endpoint only guards the shell against empty input.
func (s *Server) handleSaveAPIKey(c *gin.Context) {
	var body struct {
		ProviderID string `json:"providerId"`
		APIKey     string `json:"apiKey"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(body.ProviderID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider_id is required"})
		return
	}
	if strings.TrimSpace(body.APIKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
