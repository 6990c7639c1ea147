package channel

import (
	"context"

	"github.com/joebot/relaybot/internal/bus"
)

// Handler processes one inbound message.
type Handler func(ctx context.Context, msg *bus.InboundMessage) error

// Channel is the interface for chat platform integrations.
type Channel interface {
	Name() string
	SelfID() string
	History(ctx context.Context, chatID string, limit int) ([]bus.HistoryMessage, error)
	Send(ctx context.Context, msg *bus.OutboundMessage) error
	Typing(ctx context.Context, chatID string) error
}
