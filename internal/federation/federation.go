// Package federation imports an already-issued third-party OAuth credential
// into the CLI's own credential store: the token set becomes a profile in
// the agent's auth-profiles document, parallel metadata lands in the config
// document, and the provider's preference order is updated. Federation is
// idempotent -- re-running it overwrites the same deterministic profile id.
package federation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/openclaw/openclaw-desktop/internal/authfile"
	"github.com/openclaw/openclaw-desktop/internal/configdoc"
	"github.com/openclaw/openclaw-desktop/internal/paths"
	"github.com/openclaw/openclaw-desktop/internal/provider"
)

// Result reports what federation did, for the shell to render.
type Result struct {
	Reused    bool   `json:"reused"`
	ProfileID string `json:"profileId,omitempty"`
	Model     string `json:"model,omitempty"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
}

// credential is the profile record persisted into auth-profiles.json.
type credential struct {
	Type      string `json:"type"`
	Provider  string `json:"provider"`
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	Expires   int64  `json:"expires"`
	AccountID string `json:"accountId,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Federator merges a third-party token set into the two OpenClaw documents.
type Federator struct {
	ConfigPath       string
	AuthProfilesPath string
	Provider         string
	DefaultModel     string
	Now              func() time.Time
}

// NewCodexFederator returns a Federator wired for the local Codex CLI
// credential at the standard document locations.
func NewCodexFederator() *Federator {
	return &Federator{
		ConfigPath:       paths.ConfigPath(),
		AuthProfilesPath: paths.AuthProfilesPath(),
		Provider:         provider.OpenAICodex,
		DefaultModel:     provider.CodexDefaultModel,
		Now:              time.Now,
	}
}

// Federate reads the local Codex auth file and merges it into the OpenClaw
// documents. When setDefaultModel is true the primary model may be switched
// to the provider default (see applyDefaultModel for the exact rule).
func (f *Federator) Federate(setDefaultModel bool) (*Result, error) {
	tokens, err := authfile.ReadCodexTokens()
	if err != nil {
		return nil, err
	}
	return f.FederateTokens(tokens, setDefaultModel)
}

// FederateTokens merges an already-loaded token set.
func (f *Federator) FederateTokens(tokens *authfile.TokenSet, setDefaultModel bool) (*Result, error) {
	if strings.TrimSpace(tokens.AccessToken) == "" || strings.TrimSpace(tokens.RefreshToken) == "" {
		return nil, fmt.Errorf("token set is missing access or refresh token")
	}

	email := tokens.DeriveEmail()
	profileID := f.Provider + ":default"
	if email != "" {
		profileID = f.Provider + ":" + email
	}

	cred := credential{
		Type:      "oauth",
		Provider:  f.Provider,
		Access:    tokens.AccessToken,
		Refresh:   tokens.RefreshToken,
		Expires:   tokens.DeriveExpiry(f.now()),
		AccountID: tokens.DeriveAccountID(),
		Email:     email,
	}
	credRaw, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize auth profile: %w", err)
	}

	profileKey := configdoc.PathKey(profileID)
	providerKey := configdoc.PathKey(f.Provider)

	profiles := configdoc.Load(f.AuthProfilesPath)
	profiles.Set("version", 1)
	profiles.EnsureObject("profiles")
	profiles.SetRaw("profiles."+profileKey, string(credRaw))
	if err = profiles.Save(f.AuthProfilesPath); err != nil {
		return nil, err
	}

	config := configdoc.Load(f.ConfigPath)
	meta := map[string]string{"provider": f.Provider, "mode": "oauth"}
	if email != "" {
		meta["email"] = email
	}
	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize profile metadata: %w", err)
	}
	config.SetRaw("auth.profiles."+profileKey, string(metaRaw))

	order := nextOrder(config, "auth.order."+providerKey, profileID)
	orderRaw, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize auth order: %w", err)
	}
	config.SetRaw("auth.order."+providerKey, string(orderRaw))

	selected := ""
	if setDefaultModel {
		selected = f.applyDefaultModel(config)
	}

	if err = config.Save(f.ConfigPath); err != nil {
		return nil, err
	}

	log.Debugf("federated %s credential as profile %s", f.Provider, profileID)
	return &Result{
		Reused:    true,
		ProfileID: profileID,
		Model:     selected,
		Message:   "Local Codex auth has been synced into OpenClaw.",
	}, nil
}

// nextOrder builds the provider's profile-id order with profileID first,
// preserving previously ordered ids and dropping duplicates.
func nextOrder(config *configdoc.Document, orderPath, profileID string) []string {
	order := []string{profileID}
	existing := config.Get(orderPath)
	if !existing.IsArray() {
		return order
	}
	for _, item := range existing.Array() {
		id := strings.TrimSpace(item.String())
		if id == "" {
			continue
		}
		duplicate := false
		for _, have := range order {
			if have == id {
				duplicate = true
				break
			}
		}
		if !duplicate {
			order = append(order, id)
		}
	}
	return order
}

// applyDefaultModel overrides agents.defaults.model.primary with the
// provider default only when it is unset or currently points into another
// known first-party namespace; a user's custom choice is left untouched and
// reported back as the selected model.
func (f *Federator) applyDefaultModel(config *configdoc.Document) string {
	model := config.Get("agents.defaults.model")
	current := ""
	switch {
	case model.Type == gjson.String:
		current = strings.TrimSpace(model.String())
	case model.IsObject():
		current = strings.TrimSpace(model.Get("primary").String())
	}

	override := current == "" ||
		strings.HasPrefix(current, "anthropic/") ||
		strings.HasPrefix(current, "openai/")
	if override {
		config.Set("agents.defaults.model.primary", f.DefaultModel)
		return f.DefaultModel
	}
	return current
}

func (f *Federator) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
