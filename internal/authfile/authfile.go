// Package authfile reads the third-party OAuth token material that
// credential federation imports: the Codex CLI auth file and the identity
// fields recoverable from its JWTs. Decoding is best effort by contract --
// a malformed token yields absent fields, never an error.
package authfile

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/openclaw/openclaw-desktop/internal/paths"
)

// TokenSet is the read-only token material extracted from a local Codex
// auth file.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
	IDToken      string
}

// Status reports whether a reusable Codex credential is present locally.
type Status struct {
	Detected    bool     `json:"detected"`
	Source      string   `json:"source"`
	LastRefresh string   `json:"lastRefresh,omitempty"`
	TokenFields []string `json:"tokenFields"`
}

// ReadCodexTokens loads and validates the local Codex auth file. Both the
// access and refresh tokens must be present; everything else is optional.
func ReadCodexTokens() (*TokenSet, error) {
	return readCodexTokens(paths.CodexAuthPath())
}

func readCodexTokens(path string) (*TokenSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc := string(raw)
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("invalid Codex auth file format at %s", path)
	}
	tokens := gjson.Get(doc, "tokens")
	if !tokens.IsObject() {
		return nil, fmt.Errorf("codex auth tokens field is missing in %s", path)
	}

	set := &TokenSet{
		AccessToken:  strings.TrimSpace(tokens.Get("access_token").String()),
		RefreshToken: strings.TrimSpace(tokens.Get("refresh_token").String()),
		AccountID:    strings.TrimSpace(tokens.Get("account_id").String()),
		IDToken:      strings.TrimSpace(tokens.Get("id_token").String()),
	}
	if set.AccessToken == "" || set.RefreshToken == "" {
		return nil, fmt.Errorf("codex auth file %s is missing access_token or refresh_token", path)
	}
	return set, nil
}

// DetectCodex inspects the local Codex auth file without validating it,
// for UI display and for the bootstrap pre-onboard decision.
func DetectCodex() Status {
	return detectCodex(paths.CodexAuthPath())
}

func detectCodex(path string) Status {
	status := Status{Source: path, TokenFields: []string{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		return status
	}
	doc := string(raw)
	if !gjson.Valid(doc) {
		return status
	}
	status.LastRefresh = gjson.Get(doc, "last_refresh").String()
	tokens := gjson.Get(doc, "tokens")
	if tokens.IsObject() {
		tokens.ForEach(func(key, _ gjson.Result) bool {
			status.TokenFields = append(status.TokenFields, key.String())
			return true
		})
	}
	status.Detected = len(status.TokenFields) > 0
	return status
}

// DeriveAccountID returns the best available account id: the file field when set,
// otherwise the id decoded from the access token.
func (t *TokenSet) DeriveAccountID() string {
	if t.AccountID != "" {
		return t.AccountID
	}
	return JWTAccountID(t.AccessToken)
}

// DeriveEmail returns the email decoded from the access token, falling back
// to the identity token.
func (t *TokenSet) DeriveEmail() string {
	if email := JWTEmail(t.AccessToken); email != "" {
		return email
	}
	return JWTEmail(t.IDToken)
}

// DeriveExpiry returns the credential expiry in epoch milliseconds, decoded
// from the access token, then the identity token, then defaulting to one
// hour from now.
func (t *TokenSet) DeriveExpiry(now time.Time) int64 {
	if exp := JWTExpiryMillis(t.AccessToken); exp != 0 {
		return exp
	}
	if exp := JWTExpiryMillis(t.IDToken); exp != 0 {
		return exp
	}
	return now.UnixMilli() + time.Hour.Milliseconds()
}

// DecodeJWTPayload decodes the middle segment of a three-part dot-separated
// token as base64url JSON, trying the unpadded alphabet first and the
// padded one second. Returns "" when the token is not decodable.
func DecodeJWTPayload(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return ""
	}
	payload := strings.TrimSpace(parts[1])
	if payload == "" {
		return ""
	}
	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		decoded, err = base64.URLEncoding.DecodeString(payload)
		if err != nil {
			return ""
		}
	}
	doc := string(decoded)
	if !gjson.Valid(doc) {
		return ""
	}
	return doc
}

// JWTExpiryMillis extracts the exp claim normalized to epoch milliseconds.
// Values small enough to be epoch seconds are scaled up. Returns 0 when no
// expiry is decodable.
func JWTExpiryMillis(token string) int64 {
	payload := DecodeJWTPayload(token)
	if payload == "" {
		return 0
	}
	exp := gjson.Get(payload, "exp")
	if !exp.Exists() {
		return 0
	}
	value := exp.Int()
	if value == 0 {
		return 0
	}
	if value > 10_000_000_000 {
		return value
	}
	return value * 1000
}

// JWTEmail extracts the user email from a token payload, preferring the
// OpenAI profile claim over the plain email claim.
func JWTEmail(token string) string {
	payload := DecodeJWTPayload(token)
	if payload == "" {
		return ""
	}
	for _, path := range []string{
		`https://api\.openai\.com/profile.email`,
		"email",
	} {
		if email := strings.TrimSpace(gjson.Get(payload, path).String()); email != "" {
			return email
		}
	}
	return ""
}

// JWTAccountID extracts the ChatGPT account id from a token payload.
func JWTAccountID(token string) string {
	payload := DecodeJWTPayload(token)
	if payload == "" {
		return ""
	}
	for _, path := range []string{
		`https://api\.openai\.com/auth.chatgpt_account_id`,
		`https://api\.openai\.com/auth.account_id`,
	} {
		if id := strings.TrimSpace(gjson.Get(payload, path).String()); id != "" {
			return id
		}
	}
	return ""
}
