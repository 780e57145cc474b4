package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "campaignboard-cli"
)

// ErrNotAuthenticated is returned when no token is stored for an API
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'campaignboard login' first")

// getKeyringKey returns a unique key for storing tokens per API base URL
func getKeyringKey(apiURL string) string {
	return fmt.Sprintf("token-%s", apiURL)
}

// SaveToken persists the token securely in the OS keychain/credential manager
func SaveToken(apiURL, token string) error {
	if err := keyring.Set(service, getKeyringKey(apiURL), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token from the OS keychain/credential manager
func LoadToken(apiURL string) (string, error) {
	token, err := keyring.Get(service, getKeyringKey(apiURL))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the OS keychain/credential manager
func DeleteToken(apiURL string) error {
	if err := keyring.Delete(service, getKeyringKey(apiURL)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
