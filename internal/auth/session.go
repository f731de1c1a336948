package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// CookieName is the name of the session cookie.
const CookieName = "__session"

// ErrNoSession is returned for an empty or unusable session value.
var ErrNoSession = errors.New("no session")

// Session is what the session cookie carries between requests.
type Session struct {
	UserID   string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone,omitempty"`
}

// Encode serializes the session into a cookie-safe string.
func Encode(s Session) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses a value produced by Encode. Sessions without a user are rejected.
func Decode(value string) (Session, error) {
	if value == "" {
		return Session{}, ErrNoSession
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if s.UserID == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// DeriveKey turns a secret into a base64 AES key. Secrets that already are a
// base64 AES-128/192/256 key are returned unchanged.
func DeriveKey(secret string) string {
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil {
		switch len(raw) {
		case 16, 24, 32:
			return secret
		}
	}
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}
