package transcript

import "strings"

// Buffer accumulates recognized utterance chunks for one session. It is
// confined to a single controller and needs no locking; arrival order from
// the transcription source is authoritative and chunks are never reordered
// or dropped between resets.
type Buffer struct {
	text   string
	chunks int
}

// Append adds one chunk to the accumulated transcript.
func (b *Buffer) Append(text string) {
	b.text += " " + text
	b.chunks++
}

// Reset clears the buffer back to its freshly created state.
func (b *Buffer) Reset() {
	*b = Buffer{}
}

// Render returns the trimmed accumulated transcript. It does not mutate the
// buffer.
func (b *Buffer) Render() string {
	return strings.TrimSpace(b.text)
}

// Chunks reports how many chunks have been appended since the last reset.
func (b *Buffer) Chunks() int {
	return b.chunks
}
