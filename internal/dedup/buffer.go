// Package dedup provides the per-cycle buffer that turns an unordered
// batch of fetched messages into a deterministic ascending-timestamp
// sequence.
package dedup

import (
	"sort"

	"slack_dashboard/internal/model"
)

// Buffer collects one poll cycle's messages keyed by timestamp. If two
// messages ever share an identical timestamp the later insert wins
// silently; Slack timestamps are unique per channel, so this is a known
// simplification rather than an error path.
type Buffer struct {
	byTS map[float64]model.Message
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{byTS: make(map[float64]model.Message)}
}

// Add inserts messages into the buffer.
func (b *Buffer) Add(msgs ...model.Message) {
	for _, m := range msgs {
		b.byTS[m.Timestamp] = m
	}
}

// Len returns the number of buffered messages.
func (b *Buffer) Len() int {
	return len(b.byTS)
}

// Ordered returns the buffered messages sorted by ascending timestamp.
func (b *Buffer) Ordered() []model.Message {
	keys := make([]float64, 0, len(b.byTS))
	for ts := range b.byTS {
		keys = append(keys, ts)
	}
	sort.Float64s(keys)

	out := make([]model.Message, 0, len(keys))
	for _, ts := range keys {
		out = append(out, b.byTS[ts])
	}
	return out
}
