package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// SessionCookieName is the cookie the backend uses for logged-in sessions.
const SessionCookieName = "session"

// SaveSession writes a Cookie header value to path with owner-only permissions.
func SaveSession(path, cookie string) error {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return fmt.Errorf("%w: empty cookie", ErrInvalidInput)
	}
	if err := os.WriteFile(path, []byte(cookie+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// LoadSession reads the Cookie header value stored at path.
func LoadSession(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrMissingSession
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	cookie := strings.TrimSpace(string(data))
	if cookie == "" {
		return "", ErrMissingSession
	}
	return cookie, nil
}

// ClearSession removes the session file. A missing file is not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
