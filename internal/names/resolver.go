// Package names resolves message authors to display names.
package names

import (
	"context"

	"slack_dashboard/internal/model"
	"slack_dashboard/internal/slackapi"
)

// UnknownBot is displayed when the bot-info response carries no profile.
const UnknownBot = "unknown bot"

// Resolver looks up display names for message authors. Bot names are
// immutable for the life of a session and are cached after the first
// lookup; user names are fetched fresh on every call so a mid-session
// rename shows up, at the cost of extra round trips. The cache is owned
// by the Resolver instance, so sessions never share lookup state.
type Resolver struct {
	api      slackapi.API
	botNames map[string]string
}

// New creates a Resolver with an empty bot-name cache.
func New(api slackapi.API) *Resolver {
	return &Resolver{
		api:      api,
		botNames: make(map[string]string),
	}
}

// Resolve returns the display name for the message's author. Lookup
// failures are not retried here; they propagate to the session loop's
// retry policy as classified errors.
func (r *Resolver) Resolve(ctx context.Context, m model.Message) (string, error) {
	if m.FromBot() {
		return r.resolveBot(ctx, m.BotID)
	}

	user, err := r.api.GetUserInfoContext(ctx, m.UserID)
	if err != nil {
		return "", slackapi.Classify(err)
	}
	if user.Profile.RealName != "" {
		return user.Profile.RealName, nil
	}
	return user.RealName, nil
}

func (r *Resolver) resolveBot(ctx context.Context, botID string) (string, error) {
	if name, ok := r.botNames[botID]; ok {
		return name, nil
	}

	bot, err := r.api.GetBotInfoContext(ctx, botID)
	if err != nil {
		return "", slackapi.Classify(err)
	}
	if bot == nil || bot.Name == "" {
		// Not cached: a later successful lookup can still populate.
		return UnknownBot, nil
	}

	r.botNames[botID] = bot.Name
	return bot.Name, nil
}
