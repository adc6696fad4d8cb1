package affect

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

// httpClassifier posts text to sentiment/emotion model services.
type httpClassifier struct {
	client       *http.Client
	sentimentURL string
	emotionURL   string
}

func NewHTTPClassifier(cfg config.AffectConfig) Classifier {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClassifier{
		client:       &http.Client{Timeout: timeout},
		sentimentURL: cfg.SentimentURL,
		emotionURL:   cfg.EmotionURL,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type emotionResponse struct {
	Emotions []Score `json:"emotions"`
}

func (c *httpClassifier) post(ctx context.Context, url, text string, out any) error {
	body, _ := json.Marshal(classifyRequest{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("classifier %s: %s", resp.Status, string(detail))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("classifier decode: %w", err)
	}
	return nil
}

func (c *httpClassifier) ClassifySentiment(ctx context.Context, text string) (Score, error) {
	var score Score
	if err := c.post(ctx, c.sentimentURL, text, &score); err != nil {
		return Score{}, err
	}
	return score, nil
}

func (c *httpClassifier) ClassifyEmotions(ctx context.Context, text string) (Distribution, error) {
	var resp emotionResponse
	if err := c.post(ctx, c.emotionURL, text, &resp); err != nil {
		return nil, err
	}
	return Distribution(resp.Emotions), nil
}
