package channel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/joebot/relaybot/internal/bus"
	"github.com/joebot/relaybot/internal/config"
)

const discordIntents = discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Discord connects relaybot to the Discord gateway through discordgo.
type Discord struct {
	config  config.DiscordConfig
	session *discordgo.Session
}

// NewDiscord creates a new Discord channel. It does not connect yet.
func NewDiscord(cfg config.DiscordConfig) (*Discord, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord bot token not configured")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordIntents
	return &Discord{config: cfg, session: session}, nil
}

func (d *Discord) Name() string { return "discord" }

// SelfID returns the bot's user ID once the gateway reported READY.
func (d *Discord) SelfID() string {
	if d.session.State == nil || d.session.State.User == nil {
		return ""
	}
	return d.session.State.User.ID
}

// Start connects to the gateway and delivers every message to h. discordgo
// runs each event handler on its own goroutine. Start blocks until ctx is
// cancelled.
func (d *Discord) Start(ctx context.Context, h Handler) error {
	remove := d.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		msg := d.inbound(m)
		if msg == nil {
			return
		}
		if err := h(ctx, msg); err != nil {
			slog.Error("Discord message handler failed", "chat", msg.ChatID, "message", msg.MessageID, "err", err)
		}
	})
	defer remove()

	d.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Discord gateway READY", "user", r.User.Username, "guilds", len(r.Guilds))
	})

	slog.Info("Connecting to Discord gateway...")
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}

	<-ctx.Done()
	slog.Info("Discord disconnecting")
	if err := d.session.Close(); err != nil {
		return fmt.Errorf("discord close: %w", err)
	}
	return ctx.Err()
}

// inbound converts a gateway event, returning nil for messages the bot must
// not see: its own, other guilds', and authorless system messages.
func (d *Discord) inbound(m *discordgo.MessageCreate) *bus.InboundMessage {
	if m.Author == nil || m.Author.ID == "" || m.ChannelID == "" {
		return nil
	}
	self := d.SelfID()
	if m.Author.ID == self {
		return nil
	}
	if d.config.GuildID != "" && m.GuildID != d.config.GuildID {
		return nil
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &bus.InboundMessage{
		Channel:    d.Name(),
		MessageID:  m.ID,
		ChatID:     m.ChannelID,
		GuildID:    m.GuildID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
		Mentioned:  mentions(m.Message, self),
		Timestamp:  ts,
	}
}

// mentions reports whether m addresses the user: a direct mention or a
// broadcast (@everyone / @here) ping.
func mentions(m *discordgo.Message, userID string) bool {
	if userID == "" {
		return false
	}
	if m.MentionEveryone {
		return true
	}
	for _, u := range m.Mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

// History returns up to limit recent messages of chatID, newest first.
func (d *Discord) History(ctx context.Context, chatID string, limit int) ([]bus.HistoryMessage, error) {
	msgs, err := d.session.ChannelMessages(chatID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord channel messages: %w", err)
	}
	out := make([]bus.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		hm := bus.HistoryMessage{Content: m.Content}
		if m.Author != nil {
			hm.AuthorID = m.Author.ID
			hm.AuthorName = m.Author.Username
		}
		out = append(out, hm)
	}
	return out, nil
}

// Send posts one message through the Discord REST API. Callers split content
// to the 2000 character limit beforehand.
func (d *Discord) Send(ctx context.Context, msg *bus.OutboundMessage) error {
	if msg.Content == "" {
		return nil
	}
	if _, err := d.session.ChannelMessageSend(msg.ChatID, msg.Content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// Typing shows the typing indicator in chatID for a few seconds.
func (d *Discord) Typing(ctx context.Context, chatID string) error {
	return d.session.ChannelTyping(chatID, discordgo.WithContext(ctx))
}
