package monday

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
)

func TestOAuthConfigScopes(t *testing.T) {
	config := NewOAuthConfig()

	if config == nil {
		t.Fatal("expected config, got nil")
	}

	requiredScopes := map[string]bool{
		"account:read":    false,
		"boards:read":     false,
		"workspaces:read": false,
		"users:read":      false,
	}

	for _, scope := range config.Scopes {
		if _, ok := requiredScopes[scope]; ok {
			requiredScopes[scope] = true
		}
	}

	for scope, found := range requiredScopes {
		if !found {
			t.Errorf("missing required scope: %s", scope)
		}
	}
}

func TestTokenPathXDG(t *testing.T) {
	path := TokenPath()

	expectedBase := filepath.Join(xdg.DataHome, "pulsemap")
	if !strings.HasPrefix(path, expectedBase) {
		t.Errorf("expected path under %s, got %s", expectedBase, path)
	}

	if filepath.Base(path) != "monday-credentials.json" {
		t.Errorf("expected filename monday-credentials.json, got %s", filepath.Base(path))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()

	token := &oauth2.Token{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		TokenType:    "Bearer",
	}

	if err := SaveToken(token); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	if !HasStoredToken() {
		t.Error("HasStoredToken should report true after save")
	}

	loaded, err := LoadToken()
	if err != nil {
		t.Fatalf("LoadToken failed: %v", err)
	}
	if loaded.AccessToken != "access-abc" {
		t.Errorf("expected access token roundtrip, got %q", loaded.AccessToken)
	}
	if loaded.RefreshToken != "refresh-def" {
		t.Errorf("expected refresh token roundtrip, got %q", loaded.RefreshToken)
	}
}

func TestLoadTokenMissing(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	xdg.Reload()

	if HasStoredToken() {
		t.Error("HasStoredToken should report false before save")
	}

	if _, err := LoadToken(); err == nil {
		t.Error("expected error loading missing token")
	}
}
