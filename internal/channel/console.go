package channel

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/joebot/relaybot/internal/bus"
)

// Console identifiers. The console is a single chat between one local user
// and the bot.
const (
	ConsoleChatID = "console"
	ConsoleBotID  = "relaybot"
	consoleUserID = "local"
)

// Console is an in-memory chat used by the terminal UI. It keeps a transcript
// so history lookups behave like a real channel.
type Console struct {
	user    string
	botName string

	mu         sync.Mutex
	seq        int
	transcript []bus.HistoryMessage // oldest first
	outbox     []string
}

// NewConsole creates a console chat for the named local user.
func NewConsole(user, botName string) *Console {
	return &Console{user: user, botName: botName}
}

func (c *Console) Name() string   { return "console" }
func (c *Console) SelfID() string { return ConsoleBotID }

// Post records content as a message from the local user that mentions the
// bot, runs h on it and returns whatever the bot sent in response.
func (c *Console) Post(ctx context.Context, content string, h Handler) ([]string, error) {
	c.mu.Lock()
	c.seq++
	msg := &bus.InboundMessage{
		Channel:    c.Name(),
		MessageID:  strconv.Itoa(c.seq),
		ChatID:     ConsoleChatID,
		AuthorID:   consoleUserID,
		AuthorName: c.user,
		Content:    content,
		Mentioned:  true,
		Timestamp:  time.Now(),
	}
	c.transcript = append(c.transcript, bus.HistoryMessage{AuthorID: consoleUserID, AuthorName: c.user, Content: content})
	c.outbox = nil
	c.mu.Unlock()

	err := h(ctx, msg)

	c.mu.Lock()
	defer c.mu.Unlock()
	replies := c.outbox
	c.outbox = nil
	return replies, err
}

// History returns up to limit transcript messages, newest first.
func (c *Console) History(_ context.Context, _ string, limit int) ([]bus.HistoryMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit > len(c.transcript) {
		limit = len(c.transcript)
	}
	out := make([]bus.HistoryMessage, 0, limit)
	for i := len(c.transcript) - 1; i >= len(c.transcript)-limit; i-- {
		out = append(out, c.transcript[i])
	}
	return out, nil
}

// Send appends a bot message to the transcript.
func (c *Console) Send(_ context.Context, msg *bus.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, bus.HistoryMessage{AuthorID: ConsoleBotID, AuthorName: c.botName, Content: msg.Content})
	c.outbox = append(c.outbox, msg.Content)
	return nil
}

func (c *Console) Typing(context.Context, string) error { return nil }
