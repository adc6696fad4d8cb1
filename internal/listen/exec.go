package listen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/tonallabs/tonal-core/internal/config"
)

// execSource drives external capture and recognition commands. The capture
// command prints raw 16-bit little-endian PCM on stdout for up to
// --duration-ms; the recognize command takes --audio <wav> --language <tag>
// and prints JSON {"text","confidence"} on stdout. The mutex serializes
// access to the recognition model.
type execSource struct {
	captureCmd   []string
	recognizeCmd []string
	cfg          config.RecognizerConfig
	mu           sync.Mutex
}

type recognizeResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func NewExecSource(cfg config.RecognizerConfig) (Source, error) {
	parser := shellwords.NewParser()
	captureCmd, err := parser.Parse(cfg.CaptureCommand)
	if err != nil {
		return nil, fmt.Errorf("parse capture command: %w", err)
	}
	recognizeCmd, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse recognize command: %w", err)
	}
	if len(captureCmd) == 0 || len(recognizeCmd) == 0 {
		return nil, fmt.Errorf("recognizer commands must not be empty")
	}
	return &execSource{captureCmd: captureCmd, recognizeCmd: recognizeCmd, cfg: cfg}, nil
}

func (s *execSource) Listen(ctx context.Context, timeout time.Duration) (Audio, error) {
	args := append([]string{}, s.captureCmd[1:]...)
	args = append(args, "--duration-ms", strconv.FormatInt(timeout.Milliseconds(), 10))

	command := exec.CommandContext(ctx, s.captureCmd[0], args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return Audio{}, fmt.Errorf("%w: capture command failed: %v: %s", ErrUnavailable, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return Audio{}, ErrNoSpeech
	}
	return Audio{
		PCM:        stdout.Bytes(),
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
	}, nil
}

func (s *execSource) Recognize(ctx context.Context, audio Audio, language string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.CreateTemp(os.TempDir(), "tonal_rec_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := WriteWAV(file, audio); err != nil {
		return "", err
	}

	args := append([]string{}, s.recognizeCmd[1:]...)
	args = append(args, "--audio", file.Name())
	if language != "" {
		args = append(args, "--language", language)
	}

	command := exec.CommandContext(ctx, s.recognizeCmd[0], args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("%w: recognize command failed: %v: %s", ErrUnavailable, err, stderr.String())
	}

	var resp recognizeResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("decode recognize response: %w", err)
	}
	if resp.Text == "" {
		return "", ErrUnintelligible
	}
	return resp.Text, nil
}
