package text

import "strings"

// Placeholders recognised by FormatPrompt.
const (
	PlaceholderUser     = "{user}"
	PlaceholderQuestion = "{question}"
	PlaceholderHistory  = "{history}"
)

// FormatPrompt fills the {user}, {question} and {history} placeholders of
// template in a single left-to-right pass. Substituted values are never
// rescanned, so a question that itself contains "{history}" stays literal.
// Placeholders missing from the template are simply not filled.
func FormatPrompt(template, user, question, history string) string {
	r := strings.NewReplacer(
		PlaceholderUser, user,
		PlaceholderQuestion, question,
		PlaceholderHistory, history,
	)
	return r.Replace(template)
}
