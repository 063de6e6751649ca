// Package transcript formats ordered messages into terminal output,
// compressing repeated headers and marking day boundaries.
package transcript

import (
	"fmt"
	"html"
	"time"

	"github.com/charmbracelet/lipgloss"

	"slack_dashboard/internal/model"
)

// RenderState tracks what the transcript last displayed, so repeated
// channel and author labels can be omitted and date banners emitted
// exactly when the calendar day changes.
type RenderState struct {
	// LastDate is the calendar date of the last rendered message; the
	// zero value means nothing has been rendered this session.
	LastDate time.Time
	// LastChannel and LastUser are the labels most recently printed.
	LastChannel string
	LastUser    string
	// SawDatelessToday records that at least one message was shown in
	// the short time-only format. The session controller uses it to
	// rewind the watermark when a day boundary passes.
	SawDatelessToday bool
}

// Renderer turns messages for one subscribed channel into styled lines.
type Renderer struct {
	channelID   string
	channelName string
	state       RenderState

	headerStyle lipgloss.Style
	userStyle   lipgloss.Style
}

// New creates a Renderer for the subscribed channel.
func New(channelID, channelName string) *Renderer {
	return &Renderer{
		channelID:   channelID,
		channelName: channelName,
		headerStyle: lipgloss.NewStyle().Underline(true),
		userStyle:   lipgloss.NewStyle().Underline(true).Bold(true),
	}
}

// Render formats one message. Messages from other channels are silently
// discarded and leave the render state untouched; this keeps the view
// single-channel even when a backfill batch spans every channel the
// credential can see. The second return reports whether a line was
// produced.
func (r *Renderer) Render(m model.Message, displayName string, now time.Time) (string, bool) {
	if m.Channel != r.channelID {
		return "", false
	}

	t := m.Time()
	out := ""

	if !r.state.LastDate.IsZero() && !sameDate(t, r.state.LastDate) {
		out += fmt.Sprintf("######### %s #########\n", t.Format("2006-01-02"))
	}
	r.state.LastDate = t

	var tStr string
	if sameDate(t, now) {
		// Today's messages carry no date; remember that so the day
		// rollover can force a re-synchronization.
		r.state.SawDatelessToday = true
		tStr = t.Format("15:04:05")
	} else {
		tStr = t.Format("2006-01-02 15:04:05")
	}

	cn := ""
	if r.channelName != r.state.LastChannel {
		cn = "@" + r.channelName
	}
	r.state.LastChannel = r.channelName

	un := ""
	if displayName != r.state.LastUser {
		un = "@[" + displayName + "]"
	}
	r.state.LastUser = displayName

	out += r.headerStyle.Render(cn+"("+tStr+")") +
		r.userStyle.Render(un) +
		" - " + html.UnescapeString(m.Text)
	return out, true
}

// State returns a copy of the current render state.
func (r *Renderer) State() RenderState {
	return r.state
}

// ClearDateless resets the dateless-message flag after the session
// controller has rewound the watermark.
func (r *Renderer) ClearDateless() {
	r.state.SawDatelessToday = false
}

// ChannelName returns the label of the subscribed channel.
func (r *Renderer) ChannelName() string {
	return r.channelName
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
