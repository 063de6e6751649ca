// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "slack-dashboard"

// Config holds the application configuration.
type Config struct {
	// Token and Channel come from SLACK_TOKEN and SLACK_CHANNEL when set.
	// Either may be empty on a first run; the dashboard then prompts and
	// persists the answer through the credential store.
	Token   string
	Channel string

	// ConfigDir is where the token file, channel file, and session
	// database live.
	ConfigDir    string
	DatabasePath string

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dir := os.Getenv("CONFIG_DIR")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		dir = filepath.Join(base, appName)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dir, "session.db")
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Token:        os.Getenv("SLACK_TOKEN"),
		Channel:      os.Getenv("SLACK_CHANNEL"),
		ConfigDir:    dir,
		DatabasePath: dbPath,
		LogLevel:     logLevel,
		LogFile:      os.Getenv("LOG_FILE"),
	}, nil
}

// TokenPath returns the path of the stored API token.
func (c *Config) TokenPath() string {
	return filepath.Join(c.ConfigDir, "slack_token")
}

// ChannelPath returns the path of the stored channel selection.
func (c *Config) ChannelPath() string {
	return filepath.Join(c.ConfigDir, "slack_channel")
}
