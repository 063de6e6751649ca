// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"strconv"
	"time"
)

// Message is a single chat message normalized from the Slack history API.
// Exactly one of UserID and BotID is set. Service events (joins, topic
// changes) are dropped before a Message is constructed.
type Message struct {
	// Timestamp is Slack's decimal seconds since the epoch. It is unique
	// within a channel and orders messages.
	Timestamp float64
	Channel   string
	UserID    string
	BotID     string
	Text      string
}

// Time returns the message timestamp as a local time.Time.
func (m Message) Time() time.Time {
	sec := int64(m.Timestamp)
	nsec := int64((m.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// FromBot reports whether the message was authored by a bot.
func (m Message) FromBot() bool {
	return m.UserID == "" && m.BotID != ""
}

// ParseTimestamp parses Slack's "1700000000.123456" timestamp format.
func ParseTimestamp(ts string) (float64, error) {
	v, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	return v, nil
}

// FormatTimestamp renders a watermark in the format the history API
// expects for its oldest parameter.
func FormatTimestamp(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 6, 64)
}

// Channel is a conversation the authenticated credential can see.
type Channel struct {
	ID   string
	Name string
}
