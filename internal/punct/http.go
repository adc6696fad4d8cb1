package punct

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tonallabs/tonal-core/internal/config"
)

// httpBackend posts raw text to a punctuation model service.
type httpBackend struct {
	client *http.Client
	url    string
}

func NewHTTPBackend(cfg config.PunctuationConfig) Backend {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpBackend{
		client: &http.Client{Timeout: timeout},
		url:    cfg.URL,
	}
}

type restoreRequest struct {
	Text string `json:"text"`
}

type restoreResponse struct {
	Text string `json:"text"`
}

func (b *httpBackend) Restore(ctx context.Context, text string) (string, error) {
	body, _ := json.Marshal(restoreRequest{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("punctuation %s: %s", resp.Status, string(detail))
	}
	var out restoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("punctuation decode: %w", err)
	}
	return out.Text, nil
}
