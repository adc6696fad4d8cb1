package punct

import (
	"context"
	"strings"
	"unicode"
)

// mockBackend capitalizes the first letter and terminates the text. Good
// enough for development without a punctuation model.
type mockBackend struct{}

func NewMockBackend() Backend {
	return &mockBackend{}
}

func (m *mockBackend) Restore(_ context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	out := string(runes)
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out, nil
}
