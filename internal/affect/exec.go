package affect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/tonallabs/tonal-core/internal/config"
)

// execClassifier shells out to classifier commands that read text on stdin
// and print JSON on stdout. The sentiment command prints a single
// {"label","score"} object, the emotion command a JSON array of them in
// score order. The mutex serializes access per model process.
type execClassifier struct {
	sentimentCmd []string
	emotionCmd   []string
	timeout      time.Duration
	mu           sync.Mutex
}

func NewExecClassifier(cfg config.AffectConfig) (Classifier, error) {
	parser := shellwords.NewParser()
	sentimentCmd, err := parser.Parse(cfg.SentimentCommand)
	if err != nil {
		return nil, fmt.Errorf("parse sentiment command: %w", err)
	}
	emotionCmd, err := parser.Parse(cfg.EmotionCommand)
	if err != nil {
		return nil, fmt.Errorf("parse emotion command: %w", err)
	}
	if len(sentimentCmd) == 0 || len(emotionCmd) == 0 {
		return nil, fmt.Errorf("affect classifier commands must not be empty")
	}
	return &execClassifier{
		sentimentCmd: sentimentCmd,
		emotionCmd:   emotionCmd,
		timeout:      time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}, nil
}

func (c *execClassifier) run(ctx context.Context, argv []string, text string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	command.Stdin = strings.NewReader(text)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("classifier command failed: %w: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (c *execClassifier) ClassifySentiment(ctx context.Context, text string) (Score, error) {
	out, err := c.run(ctx, c.sentimentCmd, text)
	if err != nil {
		return Score{}, err
	}
	var score Score
	if err := json.Unmarshal(out, &score); err != nil {
		return Score{}, fmt.Errorf("decode sentiment response: %w", err)
	}
	return score, nil
}

func (c *execClassifier) ClassifyEmotions(ctx context.Context, text string) (Distribution, error) {
	out, err := c.run(ctx, c.emotionCmd, text)
	if err != nil {
		return nil, err
	}
	var dist Distribution
	if err := json.Unmarshal(out, &dist); err != nil {
		return nil, fmt.Errorf("decode emotion response: %w", err)
	}
	return dist, nil
}
