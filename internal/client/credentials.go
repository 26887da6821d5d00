package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v4"
)

// CredentialStore reads and writes the bearer tokens the sync client uses.
// Tokens live in a small JSON file under fixed keys; absence of the file or
// of the access token is an auth error for every operation that needs one.
type CredentialStore struct {
	path string
}

// NewCredentialStore creates a credential store backed by the given file path
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

type storedCredentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// AccessToken returns the stored access token, or ErrAuth if none is stored
func (s *CredentialStore) AccessToken() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: no stored credentials at %s", ErrAuth, s.path)
		}
		return "", fmt.Errorf("%w: reading credentials: %v", ErrAuth, err)
	}

	var creds storedCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("%w: malformed credentials file: %v", ErrAuth, err)
	}
	if creds.AccessToken == "" {
		return "", fmt.Errorf("%w: credentials file has no access token", ErrAuth)
	}

	return creds.AccessToken, nil
}

// Save persists a new token pair, replacing any previous one
func (s *CredentialStore) Save(accessToken, refreshToken string) error {
	data, err := json.MarshalIndent(storedCredentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes any stored credentials; clearing an empty store is a no-op
func (s *CredentialStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// UserIDFromToken extracts the user ID from a JWT access token without
// verifying the signature. The claims are only used to address requests;
// the server re-validates the token on every call.
func UserIDFromToken(token string) (int, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return 0, fmt.Errorf("%w: invalid token format: %v", ErrAuth, err)
	}

	for _, key := range []string{"sub", "userId", "id"} {
		if raw, ok := claims[key]; ok {
			if id, ok := raw.(float64); ok && id > 0 {
				return int(id), nil
			}
		}
	}

	return 0, fmt.Errorf("%w: token carries no user id claim", ErrAuth)
}
