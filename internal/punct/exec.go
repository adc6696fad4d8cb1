package punct

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/tonallabs/tonal-core/internal/config"
)

// execBackend shells out to a punctuation command that reads raw text on
// stdin and prints the punctuated rendering on stdout.
type execBackend struct {
	cmd     []string
	timeout time.Duration
	mu      sync.Mutex
}

func NewExecBackend(cfg config.PunctuationConfig) (Backend, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse punctuation command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("punctuation command is empty")
	}
	return &execBackend{
		cmd:     args,
		timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}, nil
}

func (b *execBackend) Restore(ctx context.Context, text string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	command := exec.CommandContext(ctx, b.cmd[0], b.cmd[1:]...)
	command.Stdin = strings.NewReader(text)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("punctuation command failed: %w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
