package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/slack-go/slack"

	"slack_dashboard/internal/config"
	"slack_dashboard/internal/session"
	"slack_dashboard/internal/slackapi"
	"slack_dashboard/internal/storage"
)

type stubAPI struct {
	authErr    error
	channels   []slack.Channel
	history    []slack.Message
	historyErr error
}

func (s *stubAPI) AuthTestContext(context.Context) (*slack.AuthTestResponse, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return &slack.AuthTestResponse{}, nil
}

func (s *stubAPI) GetConversationsContext(context.Context, *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	return s.channels, "", nil
}

func (s *stubAPI) GetConversationHistoryContext(context.Context, *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return &slack.GetConversationHistoryResponse{Messages: s.history}, nil
}

func (s *stubAPI) GetUserInfoContext(context.Context, string) (*slack.User, error) {
	u := &slack.User{}
	u.Profile.RealName = "Alice"
	return u, nil
}

func (s *stubAPI) GetBotInfoContext(context.Context, string) (*slack.Bot, error) {
	return &slack.Bot{Name: "bot"}, nil
}

func channel(id, name string) slack.Channel {
	var c slack.Channel
	c.ID = id
	c.Name = name
	return c
}

func newTestModel(t *testing.T, api *stubAPI) *Model {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		ConfigDir:    dir,
		DatabasePath: filepath.Join(dir, "session.db"),
	}

	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	m := New(cfg, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.newAPI = func(string) slackapi.API { return api }
	return m
}

// drive runs a command synchronously and feeds its message back.
func drive(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if msg == nil {
		return nil
	}
	_, next := m.Update(msg)
	return next
}

func TestPromptsForTokenWhenUnset(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "")
	m := newTestModel(t, &stubAPI{})

	m.Init()
	if m.phase != phaseToken {
		t.Fatalf("phase = %v, want phaseToken", m.phase)
	}

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(m.View(), "Slack API token") {
		t.Errorf("token prompt missing from view:\n%s", m.View())
	}
}

func TestStoredTokenSkipsPrompt(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "xoxb-stored")
	t.Setenv("SLACK_CHANNEL", "")
	m := newTestModel(t, &stubAPI{channels: []slack.Channel{channel("C1", "general")}})

	cmd := m.Init()
	if m.phase != phaseConnecting {
		t.Fatalf("phase = %v, want phaseConnecting", m.phase)
	}

	drive(t, m, cmd)
	if m.phase != phaseChannel {
		t.Fatalf("phase = %v, want phaseChannel after connect with no stored channel", m.phase)
	}
}

func TestConfiguredChannelGoesStraightToBackfill(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "xoxb-stored")
	t.Setenv("SLACK_CHANNEL", "C1")
	m := newTestModel(t, &stubAPI{channels: []slack.Channel{channel("C1", "general")}})
	m.channelID = "C1"

	cmd := m.Init()
	cmd = drive(t, m, cmd) // connectDoneMsg -> backfill cmd
	if m.phase != phaseBackfilling {
		t.Fatalf("phase = %v, want phaseBackfilling", m.phase)
	}
	if m.channelName != "general" {
		t.Errorf("channelName = %q, want %q", m.channelName, "general")
	}

	drive(t, m, cmd) // backfillDoneMsg
	if m.phase != phasePolling {
		t.Fatalf("phase = %v, want phasePolling", m.phase)
	}
}

func TestAuthRejectionTerminates(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "xoxb-bad")
	m := newTestModel(t, &stubAPI{authErr: slack.SlackErrorResponse{Err: "invalid_auth"}})

	cmd := m.Init()
	drive(t, m, cmd)

	if m.phase != phaseDone {
		t.Fatalf("phase = %v, want phaseDone", m.phase)
	}
	if m.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", m.ExitCode)
	}
	if !strings.Contains(m.ExitMessage, "invalid_auth") {
		t.Errorf("ExitMessage = %q, want the service's error text", m.ExitMessage)
	}
}

func TestBadTokenIsNeverSaved(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "")
	m := newTestModel(t, &stubAPI{authErr: slack.SlackErrorResponse{Err: "invalid_auth"}})

	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	// Type a token and submit it.
	m.input.SetValue("xoxb-typo")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drive(t, m, cmd)

	if m.phase != phaseDone {
		t.Fatalf("phase = %v, want phaseDone", m.phase)
	}
	if _, err := m.tokenStore.Load(); err != nil {
		t.Fatalf("load token: %v", err)
	}
	stored, _ := m.tokenStore.Load()
	if stored != "" {
		t.Errorf("rejected token was persisted: %q", stored)
	}
}

func TestTokenPersistedAfterFirstSuccessfulRoundTrip(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "")
	t.Setenv("SLACK_CHANNEL", "")
	m := newTestModel(t, &stubAPI{channels: []slack.Channel{channel("C1", "general")}})

	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.input.SetValue("xoxb-good")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cmd = drive(t, m, cmd) // connect -> channel prompt

	if m.phase != phaseChannel {
		t.Fatalf("phase = %v, want phaseChannel", m.phase)
	}

	m.input.SetValue("general")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drive(t, m, cmd) // backfill -> polling

	if m.phase != phasePolling {
		t.Fatalf("phase = %v, want phasePolling", m.phase)
	}

	token, err := m.tokenStore.Load()
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if token != "xoxb-good" {
		t.Errorf("stored token = %q, want %q", token, "xoxb-good")
	}
	ch, err := m.channelStore.Load()
	if err != nil {
		t.Fatalf("load channel: %v", err)
	}
	if ch != "C1" {
		t.Errorf("stored channel = %q, want %q", ch, "C1")
	}
}

func TestTransientErrorSchedulesRetry(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "xoxb-stored")
	api := &stubAPI{
		channels:   []slack.Channel{channel("C1", "general")},
		historyErr: &url.Error{Op: "Post", Err: errors.New("connection refused")},
	}
	m := newTestModel(t, api)
	m.channelID = "C1"

	cmd := m.Init()
	cmd = drive(t, m, cmd) // connect -> backfill
	drive(t, m, cmd)       // backfill fails -> retry wait

	if m.phase != phaseRetryWait {
		t.Fatalf("phase = %v, want phaseRetryWait", m.phase)
	}
	if m.conn.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", m.conn.ErrorCount)
	}
}

func TestCtrlCInterrupts(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "xoxb-stored")
	m := newTestModel(t, &stubAPI{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if m.ExitMessage != session.InterruptMessage {
		t.Errorf("ExitMessage = %q, want %q", m.ExitMessage, session.InterruptMessage)
	}
	if m.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", m.ExitCode)
	}
}

func TestResizeAdjustsViewport(t *testing.T) {
	t.Setenv("SLACK_TOKEN", "xoxb-stored")
	m := newTestModel(t, &stubAPI{})

	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if m.viewport.Height != 22 {
		t.Errorf("viewport height = %d, want 22", m.viewport.Height)
	}

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.viewport.Width != 120 || m.viewport.Height != 38 {
		t.Errorf("viewport = %dx%d, want 120x38", m.viewport.Width, m.viewport.Height)
	}
}
