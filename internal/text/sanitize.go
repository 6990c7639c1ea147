// Package text holds the string handling shared by the relay pipeline:
// mention sanitizing, prompt templating and message chunking.
package text

import "regexp"

var (
	userMentionRe = regexp.MustCompile(`<@!?\d+>`)
	broadcastRe   = regexp.MustCompile(`@?\b(?:here|everyone|channel)\b`)
)

// RemoveID strips Discord user mention tokens (<@123>, <@!123>) from text.
// Everything else is left untouched.
func RemoveID(s string) string {
	return userMentionRe.ReplaceAllString(s, "")
}

// FilterMentions removes the broadcast keywords here, everyone and channel,
// along with a leading "@" when present, so relayed model output can never
// ping a whole channel.
func FilterMentions(s string) string {
	return broadcastRe.ReplaceAllString(s, "")
}
