// Package history turns recent channel messages into prompt context.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joebot/relaybot/internal/bus"
	"github.com/joebot/relaybot/internal/text"
)

// Serialization formats for Entries.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Reader fetches the most recent messages of a channel, newest first.
type Reader interface {
	History(ctx context.Context, chatID string, limit int) ([]bus.HistoryMessage, error)
}

// Entry is one line of conversational context.
type Entry struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// Entries is a chronological (oldest first) run of context lines.
type Entries []Entry

// Collect reads the depth+1 most recent messages of msg's channel and returns
// them oldest first, without the triggering message.
//
// The triggering message is recognised by comparing mention-stripped content,
// so any earlier message with the same text is dropped as well.
func Collect(ctx context.Context, r Reader, msg *bus.InboundMessage, depth int) (Entries, error) {
	if depth < 0 {
		depth = 0
	}
	fetched, err := r.History(ctx, msg.ChatID, depth+1)
	if err != nil {
		return nil, fmt.Errorf("fetch channel history: %w", err)
	}

	current := text.RemoveID(msg.Content)
	entries := make(Entries, 0, len(fetched))
	for i := len(fetched) - 1; i >= 0; i-- {
		content := text.RemoveID(fetched[i].Content)
		if content == current {
			continue
		}
		entries = append(entries, Entry{Author: fetched[i].AuthorName, Text: content})
	}
	return entries, nil
}

// Text renders entries as newline-joined "author: text" lines.
func (e Entries) Text() string {
	lines := make([]string, len(e))
	for i, entry := range e {
		lines[i] = entry.Author + ": " + entry.Text
	}
	return strings.Join(lines, "\n")
}

// JSON renders entries as a compact JSON array of {author, text} records.
func (e Entries) JSON() string {
	if len(e) == 0 {
		return "[]"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		// Entries only hold strings; Encode cannot fail here.
		return "[]"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Format renders entries in the named format, defaulting to FormatText.
func (e Entries) Format(format string) string {
	if format == FormatJSON {
		return e.JSON()
	}
	return e.Text()
}
