package bus

import "time"

// InboundMessage is a message received from a chat channel.
type InboundMessage struct {
	Channel    string
	MessageID  string
	ChatID     string
	GuildID    string
	AuthorID   string
	AuthorName string
	Content    string
	// Mentioned is set when the message explicitly addresses the bot.
	Mentioned bool
	Timestamp time.Time
}

// OutboundMessage is a message to send to a chat channel.
type OutboundMessage struct {
	ChatID  string
	Content string
}

// HistoryMessage is one message returned by a channel history query.
type HistoryMessage struct {
	AuthorID   string
	AuthorName string
	Content    string
}
