// Package credstore persists the API token and channel selection across
// runs. Values are looked up in the environment first, then in a local
// file; saved files are readable by the owner only.
package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore loads and saves a single value with env-over-file precedence.
type FileStore struct {
	envVar string
	path   string
}

// NewTokenStore returns the store for the Slack API token.
func NewTokenStore(path string) *FileStore {
	return &FileStore{envVar: "SLACK_TOKEN", path: path}
}

// NewChannelStore returns the store for the selected channel ID.
func NewChannelStore(path string) *FileStore {
	return &FileStore{envVar: "SLACK_CHANNEL", path: path}
}

// Load returns the stored value, or "" when neither the environment
// variable nor the file is present. A missing file is not an error.
func (s *FileStore) Load() (string, error) {
	if v := os.Getenv(s.envVar); v != "" {
		return v, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the value to the file with owner-only permissions,
// creating the parent directory if needed.
func (s *FileStore) Save(value string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(value), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	// WriteFile only applies the mode on creation.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("chmod %s: %w", s.path, err)
	}
	return nil
}
