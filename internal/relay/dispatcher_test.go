package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/joebot/relaybot/internal/bus"
	"github.com/joebot/relaybot/internal/config"
	"github.com/joebot/relaybot/internal/llm"
)

const botID = "999"

type fakeChannel struct {
	history    []bus.HistoryMessage
	historyErr error
	sent       []string
	typing     int
}

func (f *fakeChannel) SelfID() string { return botID }

func (f *fakeChannel) History(_ context.Context, _ string, limit int) ([]bus.HistoryMessage, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeChannel) Send(_ context.Context, msg *bus.OutboundMessage) error {
	f.sent = append(f.sent, msg.Content)
	return nil
}

func (f *fakeChannel) Typing(context.Context, string) error {
	f.typing++
	return nil
}

type fakeProvider struct {
	reply string
	err   error
	reqs  []llm.ChatRequest
}

func (f *fakeProvider) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Content: f.reply}, nil
}

func (f *fakeProvider) DefaultModel() string { return "fake" }

func testBot() config.BotConfig {
	return config.BotConfig{
		Identity:       "You are relaybot.",
		QuestionPrompt: "{user} asked: {question}\nContext:\n{history}",
		TriggerPrompt:  "{user} mentioned something: {question}",
		Triggers:       []string{"pizza"},
		TriggerLevel:   0.25,
		Temperature:    0.7,
		HistoryLines:   5,
		HistoryFormat:  "text",
		Mode:           config.ModeTrigger,
		Command:        "summarize",
		UsageHint:      "usage: summarize <text>",
	}
}

func newTestDispatcher(bot config.BotConfig, ch *fakeChannel, p *fakeProvider, draw float64) *Dispatcher {
	return New(Config{
		Bot:      bot,
		LLM:      config.LLMConfig{Model: "m", MaxTokens: 2000},
		Provider: p,
		Channel:  ch,
		Rand:     func() float64 { return draw },
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestHandleIgnoresSelf(t *testing.T) {
	ch := &fakeChannel{}
	p := &fakeProvider{reply: "hi"}
	d := newTestDispatcher(testBot(), ch, p, 0)

	err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: botID, Content: "pizza <@999>", Mentioned: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(ch.sent) != 0 || len(p.reqs) != 0 {
		t.Fatalf("self message produced output: sent=%v reqs=%d", ch.sent, len(p.reqs))
	}
}

func TestHandleDirectMention(t *testing.T) {
	ch := &fakeChannel{history: []bus.HistoryMessage{
		{AuthorName: "alice", Content: "<@999> what time is it"},
		{AuthorName: "carol", Content: "hey"},
		{AuthorName: "bob", Content: "hi"},
	}}
	p := &fakeProvider{reply: "It is noon @everyone"}
	d := newTestDispatcher(testBot(), ch, p, 0)

	msg := &bus.InboundMessage{AuthorID: "1", AuthorName: "alice", ChatID: "c", Content: "<@999> what time is it", Mentioned: true}
	if err := d.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if len(p.reqs) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(p.reqs))
	}
	req := p.reqs[0]
	if req.Messages[0].Role != llm.RoleSystem || req.Messages[0].Content != "You are relaybot." {
		t.Errorf("unexpected system message %+v", req.Messages[0])
	}
	wantPrompt := "alice asked:  what time is it\nContext:\nbob: hi\ncarol: hey"
	if req.Messages[1].Content != wantPrompt {
		t.Errorf("prompt = %q, want %q", req.Messages[1].Content, wantPrompt)
	}
	if req.Model != "m" || req.MaxTokens != 2000 || req.Temperature != 0.7 {
		t.Errorf("unexpected options %+v", req)
	}
	if len(ch.sent) != 1 || ch.sent[0] != "It is noon " {
		t.Errorf("sent = %q", ch.sent)
	}
	if ch.typing != 1 {
		t.Errorf("typing = %d", ch.typing)
	}
}

func TestHandleMentionSkipsTrigger(t *testing.T) {
	ch := &fakeChannel{}
	p := &fakeProvider{reply: "ok"}
	d := newTestDispatcher(testBot(), ch, p, 0)

	msg := &bus.InboundMessage{AuthorID: "1", AuthorName: "alice", Content: "<@999> pizza?", Mentioned: true}
	if err := d.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if len(p.reqs) != 1 {
		t.Fatalf("expected exactly one completion, got %d", len(p.reqs))
	}
	if !strings.HasPrefix(p.reqs[0].Messages[1].Content, "alice asked:") {
		t.Fatalf("expected question template, got %q", p.reqs[0].Messages[1].Content)
	}
}

func TestHandleTrigger(t *testing.T) {
	tests := []struct {
		name    string
		content string
		draw    float64
		want    bool
	}{
		{"draw below level", "who wants pizza", 0.1, true},
		{"draw at level", "who wants pizza", 0.25, true},
		{"draw above level", "who wants pizza", 0.9, false},
		{"case sensitive", "who wants PIZZA", 0.0, false},
		{"no trigger", "who wants pasta", 0.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{}
			p := &fakeProvider{reply: "yum"}
			d := newTestDispatcher(testBot(), ch, p, tt.draw)

			msg := &bus.InboundMessage{AuthorID: "1", AuthorName: "bob", Content: tt.content}
			if err := d.Handle(context.Background(), msg); err != nil {
				t.Fatal(err)
			}
			if got := len(ch.sent) == 1; got != tt.want {
				t.Fatalf("responded = %v, want %v (sent %q)", got, tt.want, ch.sent)
			}
			if tt.want && p.reqs[0].Messages[1].Content != "bob mentioned something: "+tt.content {
				t.Fatalf("unexpected prompt %q", p.reqs[0].Messages[1].Content)
			}
		})
	}
}

func TestHandleEmptyTriggersNeverMatch(t *testing.T) {
	bot := testBot()
	bot.Triggers = []string{""}
	ch := &fakeChannel{}
	p := &fakeProvider{reply: "x"}
	d := newTestDispatcher(bot, ch, p, 0)

	if err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: "1", Content: "anything"}); err != nil {
		t.Fatal(err)
	}
	if len(p.reqs) != 0 {
		t.Fatal("empty trigger list should never match")
	}
}

func TestHandleChunksLongReply(t *testing.T) {
	ch := &fakeChannel{}
	p := &fakeProvider{reply: strings.Repeat("x", 4001)}
	d := newTestDispatcher(testBot(), ch, p, 0)

	if err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: "1", Content: "<@999> tell me", Mentioned: true}); err != nil {
		t.Fatal(err)
	}
	if len(ch.sent) != 3 || len(ch.sent[0]) != 2000 || len(ch.sent[1]) != 2000 || len(ch.sent[2]) != 1 {
		var sizes []int
		for _, s := range ch.sent {
			sizes = append(sizes, len(s))
		}
		t.Fatalf("chunk sizes = %v, want [2000 2000 1]", sizes)
	}
}

func TestHandleCompletionError(t *testing.T) {
	remote := &llm.RemoteServiceError{StatusCode: 500, Err: errors.New("down")}

	t.Run("silent", func(t *testing.T) {
		ch := &fakeChannel{}
		d := newTestDispatcher(testBot(), ch, &fakeProvider{err: remote}, 0)

		err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: "1", Content: "<@999> hi", Mentioned: true})
		var rse *llm.RemoteServiceError
		if !errors.As(err, &rse) {
			t.Fatalf("err = %v, want RemoteServiceError", err)
		}
		if len(ch.sent) != 0 {
			t.Fatalf("sent = %q, want nothing", ch.sent)
		}
	})

	t.Run("error reply", func(t *testing.T) {
		bot := testBot()
		bot.ErrorReply = "sorry, my brain is offline"
		ch := &fakeChannel{}
		d := newTestDispatcher(bot, ch, &fakeProvider{err: remote}, 0)

		err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: "1", Content: "<@999> hi", Mentioned: true})
		if err == nil {
			t.Fatal("expected error")
		}
		if len(ch.sent) != 1 || ch.sent[0] != bot.ErrorReply {
			t.Fatalf("sent = %q", ch.sent)
		}
	})
}

func TestHandleHistoryError(t *testing.T) {
	boom := errors.New("boom")
	ch := &fakeChannel{historyErr: boom}
	p := &fakeProvider{reply: "x"}
	d := newTestDispatcher(testBot(), ch, p, 0)

	err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: "1", Content: "<@999> hi", Mentioned: true})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(p.reqs) != 0 || len(ch.sent) != 0 {
		t.Fatal("history failure must abort before the completion call")
	}
}

func TestHandleCommandMode(t *testing.T) {
	bot := testBot()
	bot.Mode = config.ModeCommand

	t.Run("command prefix", func(t *testing.T) {
		ch := &fakeChannel{}
		p := &fakeProvider{reply: "summary"}
		d := newTestDispatcher(bot, ch, p, 0)

		msg := &bus.InboundMessage{AuthorID: "1", AuthorName: "alice", Content: "<@999>  SUMMARIZE please", Mentioned: true}
		if err := d.Handle(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
		if len(p.reqs) != 1 {
			t.Fatalf("expected completion call, got %d", len(p.reqs))
		}
		if !strings.HasPrefix(p.reqs[0].Messages[1].Content, "alice asked: SUMMARIZE please") {
			t.Fatalf("unexpected prompt %q", p.reqs[0].Messages[1].Content)
		}
		if len(ch.sent) != 1 || ch.sent[0] != "summary" {
			t.Fatalf("sent = %q", ch.sent)
		}
	})

	t.Run("usage hint", func(t *testing.T) {
		ch := &fakeChannel{}
		p := &fakeProvider{reply: "summary"}
		d := newTestDispatcher(bot, ch, p, 0)

		msg := &bus.InboundMessage{AuthorID: "1", Content: "<@999> hello bot", Mentioned: true}
		if err := d.Handle(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
		if len(p.reqs) != 0 {
			t.Fatal("usage hint path must not call the completion endpoint")
		}
		if len(ch.sent) != 1 || ch.sent[0] != bot.UsageHint {
			t.Fatalf("sent = %q", ch.sent)
		}
	})

	t.Run("not mentioned", func(t *testing.T) {
		ch := &fakeChannel{}
		p := &fakeProvider{reply: "summary"}
		d := newTestDispatcher(bot, ch, p, 0)

		if err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: "1", Content: "summarize pizza"}); err != nil {
			t.Fatal(err)
		}
		if len(ch.sent) != 0 || len(p.reqs) != 0 {
			t.Fatal("unmentioned message in command mode must be ignored")
		}
	})
}

func TestHandleAllowList(t *testing.T) {
	bot := testBot()
	bot.AllowFrom = []string{"42"}
	ch := &fakeChannel{}
	p := &fakeProvider{reply: "hi"}
	d := newTestDispatcher(bot, ch, p, 0)

	if err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: "1", Content: "<@999> hi", Mentioned: true}); err != nil {
		t.Fatal(err)
	}
	if len(ch.sent) != 0 {
		t.Fatal("sender outside allow list got a reply")
	}
	if err := d.Handle(context.Background(), &bus.InboundMessage{AuthorID: "42", Content: "<@999> hi", Mentioned: true}); err != nil {
		t.Fatal(err)
	}
	if len(ch.sent) != 1 {
		t.Fatal("allowed sender got no reply")
	}
}

func TestHasPrefixFold(t *testing.T) {
	tests := []struct {
		s, prefix string
		want      bool
	}{
		{"SUMMARIZE please", "summarize", true},
		{"summarize", "summarize", true},
		{"summ", "summarize", false},
		{"hello", "summarize", false},
		{"\u212Aeep going", "keep", true},
		{"keep going", "\u212Aeep", true},
		{"anything", "", true},
	}
	for _, tt := range tests {
		if got := hasPrefixFold(tt.s, tt.prefix); got != tt.want {
			t.Errorf("hasPrefixFold(%q, %q) = %v, want %v", tt.s, tt.prefix, got, tt.want)
		}
	}
}
