// Package slackapi wraps the Slack Web API client behind a small
// interface and classifies its failures into the two kinds the session
// loop distinguishes: fatal credential rejections and retryable
// transport faults.
package slackapi

import (
	"context"

	"github.com/slack-go/slack"
)

// API is the subset of the Slack Web API the dashboard uses.
// *slack.Client satisfies it.
type API interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	GetBotInfoContext(ctx context.Context, bot string) (*slack.Bot, error)
}

// New creates a Slack Web API client for the given token.
func New(token string, opts ...slack.Option) API {
	return slack.New(token, opts...)
}
