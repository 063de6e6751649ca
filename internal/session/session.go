// Package session owns the poll/render cycle: it advances the watermark
// past rendered messages, re-synchronizes it across day boundaries, and
// tracks connection flapping for the outer retry loop.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"slack_dashboard/internal/dedup"
	"slack_dashboard/internal/model"
	"slack_dashboard/internal/storage"
	"slack_dashboard/internal/transcript"
)

// Tuning constants, from the reference behavior.
const (
	// MaxErrors is the number of clustered transient errors tolerated
	// before the session gives up.
	MaxErrors = 3
	// ErrorSpan is the flap-detection window: errors further apart than
	// this are treated as isolated noise.
	ErrorSpan = 30 * time.Second
	// RetryDelay is the pause before re-running the connect sequence
	// after a transient error.
	RetryDelay = 10 * time.Second
	// PollInterval is the pause between history fetches.
	PollInterval = 10 * time.Second
	// InitSpan is the backfill lookback window.
	InitSpan = 7 * 24 * time.Hour
)

// Exit messages shown after the terminal surface is released.
const (
	UnstableMessage  = "Network connection is unstable or lost."
	InterruptMessage = "slack-dashboard exit by Ctrl+C."
)

// MessageSource fetches channel history newer than a watermark.
type MessageSource interface {
	Fetch(ctx context.Context, channelID string, watermark float64) ([]model.Message, error)
}

// NameResolver resolves a message author to a display name.
type NameResolver interface {
	Resolve(ctx context.Context, m model.Message) (string, error)
}

// Controller drives one channel subscription: fetch, order, resolve,
// render, advance. It owns the watermark; everything below it is
// stateless per cycle.
type Controller struct {
	source    MessageSource
	resolver  NameResolver
	renderer  *transcript.Renderer
	store     storage.Storage
	log       *slog.Logger
	channelID string

	watermark float64
}

// NewController wires a controller for the given channel.
func NewController(source MessageSource, resolver NameResolver, renderer *transcript.Renderer, store storage.Storage, log *slog.Logger, channelID string) *Controller {
	return &Controller{
		source:    source,
		resolver:  resolver,
		renderer:  renderer,
		store:     store,
		log:       log,
		channelID: channelID,
	}
}

// Start establishes the initial watermark: the persisted one when it is
// newer than the backfill horizon, otherwise now minus InitSpan.
func (c *Controller) Start(ctx context.Context, now time.Time) error {
	horizon := timestampOf(now.Add(-InitSpan))
	c.watermark = horizon

	saved, ok, err := c.store.LoadWatermark(ctx, c.channelID)
	if err != nil {
		return fmt.Errorf("load watermark: %w", err)
	}
	if ok && saved > horizon {
		c.watermark = saved
		c.log.Debug("resuming from persisted watermark", "channel", c.channelID, "watermark", saved)
	}
	return nil
}

// Poll runs one cycle: fetch messages newer than the watermark, order
// them, and render each. It returns the rendered lines; on a transient
// failure the lines rendered before the fault are returned alongside
// the error and the watermark stays at the last rendered message, so a
// retry never re-displays them.
func (c *Controller) Poll(ctx context.Context, now time.Time) ([]string, error) {
	c.maybeRewind(now)

	msgs, err := c.source.Fetch(ctx, c.channelID, c.watermark)
	if err != nil {
		return nil, err
	}

	buf := dedup.NewBuffer()
	buf.Add(msgs...)

	var lines []string
	for _, m := range buf.Ordered() {
		name, err := c.resolver.Resolve(ctx, m)
		if err != nil {
			c.persist(ctx)
			return lines, err
		}
		line, ok := c.renderer.Render(m, name, now)
		if !ok {
			continue
		}
		lines = append(lines, line)
		c.watermark = m.Timestamp
	}

	if len(lines) > 0 {
		c.persist(ctx)
		c.log.Debug("rendered messages", "channel", c.channelID, "count", len(lines))
	}
	return lines, nil
}

// Watermark returns the current watermark.
func (c *Controller) Watermark() float64 {
	return c.watermark
}

// maybeRewind rolls the watermark back to the backfill horizon when the
// calendar day advanced while dateless ("today") messages were shown.
// Re-fetched messages that were already rendered are suppressed by the
// fetcher's watermark-tolerance filter, but older ones regain full date
// context so the banner logic re-triggers on the new day.
func (c *Controller) maybeRewind(now time.Time) {
	if !c.renderer.State().SawDatelessToday {
		return
	}
	wy, wm, wd := timeOf(c.watermark).Date()
	ny, nm, nd := now.Date()
	if wy == ny && wm == nm && wd == nd {
		return
	}

	c.watermark = timestampOf(now.Add(-InitSpan))
	c.renderer.ClearDateless()
	c.log.Info("day boundary crossed, rewinding watermark", "channel", c.channelID)
}

func (c *Controller) persist(ctx context.Context) {
	if err := c.store.SaveWatermark(ctx, c.channelID, c.watermark); err != nil {
		c.log.Error("persist watermark", "channel", c.channelID, "error", err)
	}
}

func timestampOf(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeOf(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
