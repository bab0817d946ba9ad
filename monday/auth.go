// ABOUTME: OAuth configuration and token management for the monday.com API
// ABOUTME: Handles the app OAuth flow and token storage at XDG paths
package monday

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
)

// Endpoint is monday.com's OAuth2 endpoint pair.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://auth.monday.com/oauth2/authorize",
	TokenURL: "https://auth.monday.com/oauth2/token",
}

// NewOAuthConfig creates the OAuth2 config for a monday.com app. Users
// register their own app at monday.com/developers; credentials come from
// the environment.
func NewOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("MONDAY_CLIENT_ID"),
		ClientSecret: os.Getenv("MONDAY_CLIENT_SECRET"),
		RedirectURL:  "http://localhost:8377/oauth/callback",
		Scopes: []string{
			"account:read",
			"boards:read",
			"workspaces:read",
			"users:read",
		},
		Endpoint: Endpoint,
	}
}

// TokenPath returns the XDG-compliant path for storing the OAuth token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "pulsemap", "monday-credentials.json")
}

// SaveToken saves the OAuth token with restricted permissions.
func SaveToken(token *oauth2.Token) error {
	path := TokenPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadToken loads a previously saved OAuth token.
func LoadToken() (*oauth2.Token, error) {
	path := TokenPath()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return &token, nil
}

// HasStoredToken reports whether a token file exists without reading it.
func HasStoredToken() bool {
	_, err := os.Stat(TokenPath())
	return err == nil
}
