// Package ui is the bubbletea front-end: a transcript viewport, a status
// line, and a prompt line, mirroring the three fixed display regions of
// the dashboard. Resize and interrupt arrive as typed messages
// (tea.WindowSizeMsg, tea.KeyMsg) and feed the session state machine.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"slack_dashboard/internal/config"
	"slack_dashboard/internal/credstore"
	"slack_dashboard/internal/fetcher"
	"slack_dashboard/internal/model"
	"slack_dashboard/internal/names"
	"slack_dashboard/internal/session"
	"slack_dashboard/internal/slackapi"
	"slack_dashboard/internal/storage"
	"slack_dashboard/internal/transcript"
)

type phase int

const (
	phaseToken phase = iota
	phaseChannel
	phaseConnecting
	phaseBackfilling
	phasePolling
	phaseRetryWait
	phaseDone
)

const emptyBackfillNotice = "No message in this week."

const tokenPrompt = `In order to interact with the Slack API, slack-dashboard requires a valid Slack API token.

This message will only appear once. After the first run, the token will be stored in a local configuration file.`

// connectDoneMsg carries the result of the auth check and channel listing.
type connectDoneMsg struct {
	channels []model.Channel
	err      error
}

// backfillDoneMsg carries the initial history render.
type backfillDoneMsg struct {
	lines []string
	err   error
}

// pollDoneMsg carries one poll cycle's rendered lines.
type pollDoneMsg struct {
	lines []string
	err   error
}

// pollTickMsg fires when the poll interval elapses.
type pollTickMsg time.Time

// retryTickMsg fires when the post-error delay elapses.
type retryTickMsg time.Time

// Model is the dashboard's bubbletea model. It owns the session
// controller, the flap-detection state, and the display surfaces.
type Model struct {
	cfg *config.Config
	log *slog.Logger

	tokenStore   *credstore.FileStore
	channelStore *credstore.FileStore
	store        storage.Storage

	// newAPI is a seam so tests can substitute the Slack client.
	newAPI func(token string) slackapi.API

	api   slackapi.API
	fetch *fetcher.Fetcher
	ctrl  *session.Controller
	conn  session.ConnState

	phase           phase
	token           string
	mustSaveToken   bool
	channelID       string
	channelName     string
	mustSaveChannel bool
	channels        []model.Channel

	viewport viewport.Model
	input    textinput.Model
	styles   styles
	ready    bool
	width    int
	height   int

	lines         []string
	lastConnected time.Time
	statusNote    string

	// ExitMessage is printed to stdout after the terminal is restored;
	// ExitCode distinguishes the graceful interrupt from failures.
	ExitMessage string
	ExitCode    int
}

// New wires the dashboard model from its collaborators.
func New(cfg *config.Config, store storage.Storage, log *slog.Logger) *Model {
	input := textinput.New()
	input.CharLimit = 256

	return &Model{
		cfg:          cfg,
		log:          log,
		store:        store,
		tokenStore:   credstore.NewTokenStore(cfg.TokenPath()),
		channelStore: credstore.NewChannelStore(cfg.ChannelPath()),
		newAPI:       func(token string) slackapi.API { return slackapi.New(token) },
		input:        input,
		styles:       newStyles(),
	}
}

// Init loads the stored credential and either starts connecting or
// prompts for a token.
func (m *Model) Init() tea.Cmd {
	token := m.cfg.Token
	if token == "" {
		var err error
		token, err = m.tokenStore.Load()
		if err != nil {
			m.log.Error("load token", "error", err)
		}
	}
	if token == "" {
		m.phase = phaseToken
		m.input.Placeholder = "Slack API token"
		return m.input.Focus()
	}
	m.token = token
	return m.connect()
}

func (m *Model) connect() tea.Cmd {
	m.phase = phaseConnecting
	m.statusNote = "Connecting..."
	m.api = m.newAPI(m.token)
	m.fetch = fetcher.New(m.api)

	f := m.fetch
	return func() tea.Msg {
		ctx := context.Background()
		if err := f.AuthCheck(ctx); err != nil {
			return connectDoneMsg{err: err}
		}
		channels, err := f.ListChannels(ctx)
		return connectDoneMsg{channels: channels, err: err}
	}
}

func (m *Model) backfill() tea.Cmd {
	renderer := transcript.New(m.channelID, m.channelName)
	resolver := names.New(m.api)
	m.ctrl = session.NewController(m.fetch, resolver, renderer, m.store, m.log, m.channelID)
	m.phase = phaseBackfilling
	m.statusNote = "Fetching history..."

	ctrl := m.ctrl
	return func() tea.Msg {
		ctx := context.Background()
		now := time.Now()
		if err := ctrl.Start(ctx, now); err != nil {
			return backfillDoneMsg{err: err}
		}
		lines, err := ctrl.Poll(ctx, now)
		return backfillDoneMsg{lines: lines, err: err}
	}
}

func (m *Model) poll() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		lines, err := ctrl.Poll(context.Background(), time.Now())
		return pollDoneMsg{lines: lines, err: err}
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(session.PollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func retryTick() tea.Cmd {
	return tea.Tick(session.RetryDelay, func(t time.Time) tea.Msg {
		return retryTickMsg(t)
	})
}

// Update is the session state machine: connect, backfill, poll, and the
// error/retry path all advance here.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Transcript area is the full window minus the status and
		// prompt lines.
		h := msg.Height - 2
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.ready = true
			m.refreshTranscript()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		m.input.Width = msg.Width - 1
		return m, nil

	case connectDoneMsg:
		return m.updateConnectDone(msg)

	case backfillDoneMsg:
		if msg.err != nil {
			return m.handleError(msg.err)
		}
		// The token and channel are known good now; persist them so a
		// bad credential is never saved.
		m.persistOnFirstSuccess()
		m.conn.Reset()
		m.appendLines(msg.lines)
		m.lastConnected = time.Now()
		m.phase = phasePolling
		m.statusNote = ""
		return m, pollTick()

	case pollTickMsg:
		if m.phase != phasePolling {
			return m, nil
		}
		return m, m.poll()

	case pollDoneMsg:
		if msg.err != nil {
			m.appendLines(msg.lines)
			return m.handleError(msg.err)
		}
		m.appendLines(msg.lines)
		m.lastConnected = time.Now()
		return m, pollTick()

	case retryTickMsg:
		if m.phase != phaseRetryWait {
			return m, nil
		}
		// Re-run the whole connect sequence. In-memory session state is
		// discarded; the persisted watermark carries across.
		return m, m.connect()
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.ExitMessage = session.InterruptMessage
		m.phase = phaseDone
		return m, tea.Quit
	}

	switch m.phase {
	case phaseToken:
		if msg.Type == tea.KeyEnter {
			token := strings.TrimSpace(m.input.Value())
			if token == "" {
				return m, nil
			}
			m.token = token
			m.mustSaveToken = true
			m.input.Reset()
			return m, m.connect()
		}
	case phaseChannel:
		if msg.Type == tea.KeyEnter {
			name := strings.TrimSpace(strings.TrimPrefix(m.input.Value(), "#"))
			for _, c := range m.channels {
				if c.Name == name {
					m.channelID = c.ID
					m.channelName = c.Name
					m.mustSaveChannel = true
					m.input.Reset()
					m.input.Blur()
					return m, m.backfill()
				}
			}
			// Not an available channel: keep prompting.
			m.input.Reset()
			return m, nil
		}
	default:
		// Transcript phases: keys scroll the viewport.
		if m.ready {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateConnectDone(msg connectDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.handleError(msg.err)
	}
	m.channels = msg.channels

	if m.channelID == "" {
		m.channelID = m.cfg.Channel
	}
	if m.channelID == "" {
		stored, err := m.channelStore.Load()
		if err != nil {
			m.log.Error("load channel", "error", err)
		}
		m.channelID = stored
	}
	if m.channelID != "" {
		for _, c := range m.channels {
			if c.ID == m.channelID {
				m.channelName = c.Name
				return m, m.backfill()
			}
		}
		// The stored channel no longer resolves; fall through to the
		// picker.
		m.log.Warn("configured channel not found", "channel", m.channelID)
		m.channelID = ""
	}

	m.phase = phaseChannel
	m.input.Placeholder = "channel name"
	return m, m.input.Focus()
}

// handleError routes a failure: credential rejections terminate, and
// transient faults go through flap detection before a delayed retry.
func (m *Model) handleError(err error) (tea.Model, tea.Cmd) {
	if slackapi.IsAuth(err) {
		m.ExitMessage = err.Error()
		m.ExitCode = 1
		m.phase = phaseDone
		return m, tea.Quit
	}

	m.log.Warn("transient connection error", "error", err)
	if m.conn.Record(time.Now()) {
		m.ExitMessage = session.UnstableMessage
		m.ExitCode = 1
		m.phase = phaseDone
		return m, tea.Quit
	}

	m.phase = phaseRetryWait
	m.statusNote = fmt.Sprintf("Connection lost, retrying in %s...", session.RetryDelay)
	return m, retryTick()
}

func (m *Model) persistOnFirstSuccess() {
	if m.mustSaveToken {
		if err := m.tokenStore.Save(m.token); err != nil {
			m.log.Error("save token", "error", err)
		}
		m.mustSaveToken = false
	}
	if m.mustSaveChannel {
		if err := m.channelStore.Save(m.channelID); err != nil {
			m.log.Error("save channel", "error", err)
		}
		m.mustSaveChannel = false
	}
}

func (m *Model) appendLines(lines []string) {
	if len(lines) == 0 {
		return
	}
	m.lines = append(m.lines, lines...)
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// View lays out the three regions: transcript, status line, prompt line.
func (m *Model) View() string {
	if m.phase == phaseDone {
		return ""
	}
	if !m.ready {
		return "Starting..."
	}

	switch m.phase {
	case phaseToken:
		return tokenPrompt + "\n\n" +
			m.styles.prompt.Render("Your Slack API token: ") + "\n" +
			m.input.View()
	case phaseChannel:
		return m.channelPrompt()
	}

	body := m.viewport.View()
	if len(m.lines) == 0 {
		content := emptyBackfillNotice
		if m.phase == phaseConnecting || m.phase == phaseBackfilling {
			content = m.statusNote
		}
		body = padToHeight(content, m.viewport.Height)
	}

	return body + "\n" + m.statusLine() + "\n"
}

func (m *Model) channelPrompt() string {
	var b strings.Builder
	b.WriteString("Which channel do you listen? Type 'foo' for the channel name '#foo'.\n\n")
	b.WriteString("Available channels: ")
	labels := make([]string, 0, len(m.channels))
	for _, c := range m.channels {
		labels = append(labels, "#"+c.Name)
	}
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString("\n\nThis message will only appear once. After the first run, the name will be stored in a local configuration file.\n\n")
	b.WriteString(m.styles.prompt.Render("Channel name which you listen: #"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *Model) statusLine() string {
	if m.statusNote != "" {
		return m.styles.errorStatus.Render(m.statusNote)
	}
	if m.lastConnected.IsZero() {
		return ""
	}
	return m.styles.status.Render("Last connected: " + m.lastConnected.Format("2006-01-02 15:04:05"))
}

func padToHeight(s string, h int) string {
	lines := strings.Count(s, "\n") + 1
	if lines >= h {
		return s
	}
	return s + strings.Repeat("\n", h-lines)
}
