package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cleanhub/cleanhub-go/store"
)

// CachedSession is the session state persisted across restarts: the
// bearer token and the authenticated user's id. Nothing else survives
// a reload.
type CachedSession struct {
	Token  string   `json:"token"`
	UserID store.ID `json:"user_id"`
}

// TokenCache persists the session to a small JSON file.
type TokenCache struct {
	path string
}

// NewTokenCache creates a cache at the given path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Load reads the cached session. A missing file yields (nil, nil).
func (c *TokenCache) Load() (*CachedSession, error) {
	if c == nil || c.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session cache: %w", err)
	}

	var cached CachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("decode session cache: %w", err)
	}
	if cached.Token == "" {
		return nil, nil
	}
	return &cached, nil
}

// Save writes the session to disk with owner-only permissions.
func (c *TokenCache) Save(cached CachedSession) error {
	if c == nil || c.path == "" {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session cache dir: %w", err)
		}
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encode session cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	return nil
}

// Clear removes the cached session.
func (c *TokenCache) Clear() error {
	if c == nil || c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session cache: %w", err)
	}
	return nil
}

// tokenExpiry extracts the exp claim from a bearer token without
// verifying the signature. The signing secret lives server-side only;
// the claim is used to prompt re-login before a doomed round trip,
// never as proof of validity.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
