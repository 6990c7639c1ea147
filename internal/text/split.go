package text

// MaxMessageLength is Discord's per-message character ceiling.
const MaxMessageLength = 2000

// SplitMessage cuts s into contiguous chunks of at most limit characters
// (runes). Chunks may end mid-word; joining them yields s unchanged. An empty
// string produces no chunks.
func SplitMessage(s string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	var chunks []string
	start, n := 0, 0
	for i := range s {
		if n == limit {
			chunks = append(chunks, s[start:i])
			start, n = i, 0
		}
		n++
	}
	if start < len(s) {
		chunks = append(chunks, s[start:])
	}
	return chunks
}
