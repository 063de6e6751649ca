package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"slack_dashboard/internal/config"
	"slack_dashboard/internal/storage"
	"slack_dashboard/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		slog.Error("open log file", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := os.MkdirAll(cfg.ConfigDir, 0o700); err != nil {
		log.Error("create config directory", "path", cfg.ConfigDir, "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	model := ui.New(cfg, store, log)

	log.Info("starting dashboard")

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Error("run program", "error", err)
		fmt.Println(err)
		os.Exit(1)
	}

	// The terminal is restored at this point; the exit reason gets a
	// single line on stdout.
	if model.ExitMessage != "" {
		fmt.Println(model.ExitMessage)
	}
	os.Exit(model.ExitCode)
}

// newLogger builds the slog logger. stdout and stderr belong to the
// terminal UI while it runs, so log output goes to LOG_FILE when set
// and is discarded otherwise.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	var lvl slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	out := io.Writer(io.Discard)
	closeLog := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.LogFile, err)
		}
		out = f
		closeLog = func() { _ = f.Close() }
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})), closeLog, nil
}
