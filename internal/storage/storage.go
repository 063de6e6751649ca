// Package storage defines the persistence interface and its implementations.
package storage

import "context"

// Storage persists per-channel session state across restarts.
type Storage interface {
	// LoadWatermark returns the saved watermark for the channel. The
	// second return is false when the channel has no saved state.
	LoadWatermark(ctx context.Context, channelID string) (float64, bool, error)

	// SaveWatermark records the newest rendered timestamp for the
	// channel, replacing any previous value.
	SaveWatermark(ctx context.Context, channelID string, watermark float64) error

	Close() error
}
