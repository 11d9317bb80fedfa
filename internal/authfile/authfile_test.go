package authfile

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tokenWithPayload(t *testing.T, payload string) string {
	t.Helper()
	return "eyJhbGciOiJub25lIn0." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".sig"
}

func TestJWTExpiryMillisScalesSeconds(t *testing.T) {
	token := tokenWithPayload(t, `{"exp": 1700000000}`)
	if got := JWTExpiryMillis(token); got != 1700000000000 {
		t.Errorf("seconds not scaled: got %d", got)
	}

	token = tokenWithPayload(t, `{"exp": 1700000000000}`)
	if got := JWTExpiryMillis(token); got != 1700000000000 {
		t.Errorf("milliseconds rescaled: got %d", got)
	}
}

func TestJWTExpiryMillisMissing(t *testing.T) {
	if got := JWTExpiryMillis(tokenWithPayload(t, `{"sub": "x"}`)); got != 0 {
		t.Errorf("expected 0 for missing exp, got %d", got)
	}
	if got := JWTExpiryMillis("garbage"); got != 0 {
		t.Errorf("expected 0 for undecodable token, got %d", got)
	}
}

func TestDecodeJWTPayloadPaddedAlphabet(t *testing.T) {
	payload := `{"email": "a@b.co"}`
	padded := base64.URLEncoding.EncodeToString([]byte(payload))
	token := "header." + padded + ".sig"
	if got := DecodeJWTPayload(token); got == "" {
		t.Fatal("padded base64url payload not decoded")
	}
}

func TestJWTEmailPrefersProfileClaim(t *testing.T) {
	token := tokenWithPayload(t, `{"https://api.openai.com/profile": {"email": "profile@example.com"}, "email": "plain@example.com"}`)
	if got := JWTEmail(token); got != "profile@example.com" {
		t.Errorf("got %q", got)
	}

	token = tokenWithPayload(t, `{"email": "plain@example.com"}`)
	if got := JWTEmail(token); got != "plain@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestJWTAccountID(t *testing.T) {
	token := tokenWithPayload(t, `{"https://api.openai.com/auth": {"chatgpt_account_id": "acct-1"}}`)
	if got := JWTAccountID(token); got != "acct-1" {
		t.Errorf("got %q", got)
	}
	token = tokenWithPayload(t, `{"https://api.openai.com/auth": {"account_id": "acct-2"}}`)
	if got := JWTAccountID(token); got != "acct-2" {
		t.Errorf("got %q", got)
	}
}

func TestDeriveExpiryFallsBackToOneHour(t *testing.T) {
	set := &TokenSet{AccessToken: "not-a-jwt", RefreshToken: "r"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	want := now.UnixMilli() + time.Hour.Milliseconds()
	if got := set.DeriveExpiry(now); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestDeriveAccountIDPrefersFileField(t *testing.T) {
	token := tokenWithPayload(t, `{"https://api.openai.com/auth": {"chatgpt_account_id": "from-jwt"}}`)
	set := &TokenSet{AccessToken: token, AccountID: "from-file"}
	if got := set.DeriveAccountID(); got != "from-file" {
		t.Errorf("got %q", got)
	}
	set.AccountID = ""
	if got := set.DeriveAccountID(); got != "from-jwt" {
		t.Errorf("got %q", got)
	}
}

func TestReadCodexTokensValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")

	if _, err := readCodexTokens(path); err == nil {
		t.Error("expected error for missing file")
	}

	os.WriteFile(path, []byte(`{"tokens": {"access_token": "a"}}`), 0o600)
	if _, err := readCodexTokens(path); err == nil {
		t.Error("expected error when refresh_token absent")
	}

	os.WriteFile(path, []byte(`{"tokens": {"access_token": "a", "refresh_token": "r", "account_id": "id"}}`), 0o600)
	set, err := readCodexTokens(path)
	if err != nil {
		t.Fatal(err)
	}
	if set.AccessToken != "a" || set.RefreshToken != "r" || set.AccountID != "id" {
		t.Errorf("unexpected token set %+v", set)
	}
}

func TestDetectCodex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")

	if status := detectCodex(path); status.Detected {
		t.Error("missing file should not be detected")
	}

	os.WriteFile(path, []byte(`{"last_refresh": "2026-08-01T00:00:00Z", "tokens": {"access_token": "a", "refresh_token": "r"}}`), 0o600)
	status := detectCodex(path)
	if !status.Detected {
		t.Fatal("tokens present but not detected")
	}
	if status.LastRefresh != "2026-08-01T00:00:00Z" {
		t.Errorf("last refresh %q", status.LastRefresh)
	}
	if len(status.TokenFields) != 2 {
		t.Errorf("token fields %v", status.TokenFields)
	}
}
