// Package monitor watches chat platforms (Slack, Discord, etc.) and groups
// inbound messages into threads for the issue-draft pipeline.
package monitor

import (
	"context"
	"time"

	"github.com/ghosthub/ghosthub/internal/models"
)

// Adapter is the interface that platform-specific implementations must satisfy.
// Each adapter handles connection management, message receiving, notification
// sending, and thread history retrieval for a single chat platform.
type Adapter interface {
	// Platform returns the platform name, e.g. "slack" or "discord".
	Platform() string

	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers a notification message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// ThreadHistory retrieves recent messages from a thread in
	// chronological order.
	ThreadHistory(ctx context.Context, channelID, threadID string, limit int) ([]models.Message, error)

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a message received from the chat platform.
type InboundMessage struct {
	Platform  string            // e.g. "slack", "discord"
	ChannelID string            // platform-specific channel identifier
	ThreadID  string            // thread/conversation identifier (empty if top-level)
	UserID    string            // platform-specific user identifier
	UserName  string            // human-readable username
	Text      string            // raw message text
	Timestamp time.Time         // when the message was sent
	Images    []models.ImageRef // image attachments, if any
}

// OutboundMessage represents a notification to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID string // target channel (adapter default when empty)
	ThreadID  string // thread to reply in (empty for new top-level message)
	Text      string // message text (platform-native formatting)
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}

// Message converts an inbound message to its pipeline form.
func (m InboundMessage) Message() models.Message {
	author := m.UserName
	if author == "" {
		author = m.UserID
	}
	return models.Message{
		Text:      m.Text,
		Author:    author,
		Timestamp: m.Timestamp,
		Platform:  m.Platform,
		Images:    m.Images,
	}
}
