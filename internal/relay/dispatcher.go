// Package relay decides whether an inbound chat message deserves a reply and
// runs the history, prompt, completion and send pipeline when it does.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/joebot/relaybot/internal/bus"
	"github.com/joebot/relaybot/internal/config"
	"github.com/joebot/relaybot/internal/history"
	"github.com/joebot/relaybot/internal/llm"
	"github.com/joebot/relaybot/internal/text"
)

// Channel is the chat platform as seen by the dispatcher.
type Channel interface {
	history.Reader
	// SelfID is the platform user ID of the bot account.
	SelfID() string
	Send(ctx context.Context, msg *bus.OutboundMessage) error
	Typing(ctx context.Context, chatID string) error
}

// Config holds the dependencies of a Dispatcher.
type Config struct {
	Bot      config.BotConfig
	LLM      config.LLMConfig
	Provider llm.Provider
	Channel  Channel
	// Rand returns a uniform draw in [0, 1). Defaults to math/rand/v2.
	Rand   func() float64
	Logger *slog.Logger
}

// Dispatcher handles inbound messages. It holds no mutable state, so Handle
// may run concurrently for different messages.
type Dispatcher struct {
	bot      config.BotConfig
	llm      config.LLMConfig
	triggers []string
	provider llm.Provider
	channel  Channel
	rand     func() float64
	logger   *slog.Logger
}

// New creates a Dispatcher.
func New(cfg Config) *Dispatcher {
	r := cfg.Rand
	if r == nil {
		r = rand.Float64
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		bot:      cfg.Bot,
		llm:      cfg.LLM,
		triggers: cfg.Bot.TriggerWords(),
		provider: cfg.Provider,
		channel:  cfg.Channel,
		rand:     r,
		logger:   logger,
	}
}

// Handle processes one inbound message. Errors from the history fetch or the
// completion call abort the message and are returned to the caller; nothing
// but the optional error reply is sent in that case.
func (d *Dispatcher) Handle(ctx context.Context, msg *bus.InboundMessage) error {
	if msg.AuthorID == d.channel.SelfID() {
		return nil
	}
	if !IsAllowed(msg.AuthorID, d.bot.AllowFrom) {
		d.logger.Debug("ignoring message from sender outside allow list", "author", msg.AuthorID)
		return nil
	}

	if d.bot.Mode == config.ModeCommand {
		return d.handleCommand(ctx, msg)
	}
	return d.handleTrigger(ctx, msg)
}

func (d *Dispatcher) handleTrigger(ctx context.Context, msg *bus.InboundMessage) error {
	if msg.Mentioned {
		return d.respond(ctx, msg, d.bot.QuestionPrompt, text.RemoveID(msg.Content))
	}

	word, ok := d.matchTrigger(msg.Content)
	if !ok {
		return nil
	}
	if draw := d.rand(); draw > d.bot.TriggerLevel {
		d.logger.Debug("trigger matched, staying quiet", "trigger", word, "draw", draw)
		return nil
	}
	d.logger.Info("responding to trigger", "trigger", word, "chat", msg.ChatID)
	return d.respond(ctx, msg, d.bot.TriggerPrompt, text.RemoveID(msg.Content))
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *bus.InboundMessage) error {
	if !msg.Mentioned {
		return nil
	}
	question := strings.TrimSpace(text.RemoveID(msg.Content))
	if !hasPrefixFold(question, strings.TrimSpace(d.bot.Command)) {
		return d.send(ctx, msg.ChatID, d.bot.UsageHint)
	}
	return d.respond(ctx, msg, d.bot.QuestionPrompt, question)
}

// matchTrigger reports the first configured keyword contained in content.
// Matching is case-sensitive.
func (d *Dispatcher) matchTrigger(content string) (string, bool) {
	for _, w := range d.triggers {
		if strings.Contains(content, w) {
			return w, true
		}
	}
	return "", false
}

func (d *Dispatcher) respond(ctx context.Context, msg *bus.InboundMessage, template, question string) error {
	entries, err := history.Collect(ctx, d.channel, msg, d.bot.HistoryLines)
	if err != nil {
		return d.fail(ctx, msg, err)
	}

	prompt := text.FormatPrompt(template, msg.AuthorName, question, entries.Format(d.bot.HistoryFormat))
	d.logger.Debug("sending prompt", "chat", msg.ChatID, "author", msg.AuthorName, "prompt", prompt)

	if err := d.channel.Typing(ctx, msg.ChatID); err != nil {
		d.logger.Warn("typing indicator failed", "chat", msg.ChatID, "err", err)
	}

	reply, err := llm.Complete(ctx, d.provider, d.bot.Identity, prompt, llm.Options{
		Model:       d.llm.Model,
		MaxTokens:   d.llm.MaxTokens,
		Temperature: d.bot.Temperature,
	})
	if err != nil {
		return d.fail(ctx, msg, err)
	}

	reply = text.FilterMentions(reply)
	chunks := text.SplitMessage(reply, text.MaxMessageLength)
	d.logger.Debug("completion received", "chat", msg.ChatID, "chunks", len(chunks), "response", reply)

	for i, chunk := range chunks {
		if err := d.send(ctx, msg.ChatID, chunk); err != nil {
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

// fail posts the configured error reply, if any, and returns err.
func (d *Dispatcher) fail(ctx context.Context, msg *bus.InboundMessage, err error) error {
	if d.bot.ErrorReply != "" {
		if sendErr := d.send(ctx, msg.ChatID, d.bot.ErrorReply); sendErr != nil {
			d.logger.Error("error reply failed", "chat", msg.ChatID, "err", sendErr)
		}
	}
	return fmt.Errorf("reply to message %s: %w", msg.MessageID, err)
}

func (d *Dispatcher) send(ctx context.Context, chatID, content string) error {
	return d.channel.Send(ctx, &bus.OutboundMessage{ChatID: chatID, Content: content})
}

// IsAllowed checks if a sender is in the allow list.
// Empty allow list means everyone is allowed.
func IsAllowed(senderID string, allowList []string) bool {
	return len(allowList) == 0 || slices.Contains(allowList, senderID)
}

// hasPrefixFold compares the first rune-count of prefix characters of s, so
// case pairs with different UTF-8 widths still match.
func hasPrefixFold(s, prefix string) bool {
	n := utf8.RuneCountInString(prefix)
	for i := range s {
		if n == 0 {
			return strings.EqualFold(s[:i], prefix)
		}
		n--
	}
	return n == 0 && strings.EqualFold(s, prefix)
}
