// Package fetcher retrieves channel history from Slack and normalizes it
// into the domain message shape.
package fetcher

import (
	"context"
	"fmt"
	"math"

	"github.com/slack-go/slack"

	"slack_dashboard/internal/model"
	"slack_dashboard/internal/slackapi"
)

// DedupTolerance is the timestamp equality window used to drop the
// watermark-boundary message the history API reports inclusively.
// Slack timestamps carry microsecond precision, so 10ms is comfortably
// wider than the service's resolution while never spanning two distinct
// messages.
const DedupTolerance = 0.01

const historyPageLimit = 200

// Fetcher reads message history and channel metadata from the Slack API.
type Fetcher struct {
	api slackapi.API
}

// New creates a Fetcher on top of the given API client.
func New(api slackapi.API) *Fetcher {
	return &Fetcher{api: api}
}

// AuthCheck verifies the credential before first use. A rejected token
// surfaces as a slackapi.AuthError.
func (f *Fetcher) AuthCheck(ctx context.Context) error {
	if _, err := f.api.AuthTestContext(ctx); err != nil {
		return slackapi.Classify(err)
	}
	return nil
}

// ListChannels returns the conversations visible to the credential.
func (f *Fetcher) ListChannels(ctx context.Context) ([]model.Channel, error) {
	var all []model.Channel
	params := &slack.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		Limit:           historyPageLimit,
		ExcludeArchived: true,
	}
	for {
		channels, cursor, err := f.api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, slackapi.Classify(err)
		}
		for _, c := range channels {
			all = append(all, model.Channel{ID: c.ID, Name: c.Name})
		}
		if cursor == "" {
			return all, nil
		}
		params.Cursor = cursor
	}
}

// Fetch retrieves messages in channelID newer than the watermark.
// The history API treats the oldest boundary inclusively, so a message
// whose timestamp matches the watermark within DedupTolerance is
// dropped; without that the last message of the previous cycle would
// render twice. Service events (joins, topic changes) are dropped too.
// The returned messages carry the source channel but no particular
// order; callers sequence them through a dedup.Buffer.
func (f *Fetcher) Fetch(ctx context.Context, channelID string, watermark float64) ([]model.Message, error) {
	resp, err := f.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Oldest:    model.FormatTimestamp(watermark),
		Limit:     historyPageLimit,
	})
	if err != nil {
		return nil, slackapi.Classify(err)
	}

	var msgs []model.Message
	for _, raw := range resp.Messages {
		m, ok, err := normalize(raw, channelID, watermark)
		if err != nil {
			return nil, err
		}
		if ok {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

func normalize(raw slack.Message, channelID string, watermark float64) (model.Message, bool, error) {
	if raw.Type != "message" {
		return model.Message{}, false, nil
	}
	// Classic bot and webhook posts carry subtype "bot_message"; service
	// events (channel_join, channel_topic, ...) carry other subtypes.
	if raw.SubType != "" && raw.SubType != "bot_message" {
		return model.Message{}, false, nil
	}
	if raw.User == "" && raw.BotID == "" {
		// No resolvable author; nothing sensible to display.
		return model.Message{}, false, nil
	}

	ts, err := model.ParseTimestamp(raw.Timestamp)
	if err != nil {
		return model.Message{}, false, fmt.Errorf("message in %s: %w", channelID, err)
	}
	if math.Abs(ts-watermark) < DedupTolerance {
		return model.Message{}, false, nil
	}

	m := model.Message{
		Timestamp: ts,
		Channel:   channelID,
		Text:      raw.Text,
	}
	if raw.User != "" {
		m.UserID = raw.User
	} else {
		m.BotID = raw.BotID
	}
	return m, true, nil
}
