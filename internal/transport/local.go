package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/kitchenctl/internal/tools"
)

// Local runs commands through the host shell and copies the sandbox on disk.
type Local struct {
	Runner tools.CommandRunner
	Shell  string
}

func (l Local) Name() string {
	return "local"
}

func (l Local) Transfer(_ context.Context, src Source, rootPath string) error {
	root := strings.TrimSpace(rootPath)
	if root == "" {
		return fmt.Errorf("%w: empty root path", ErrTransfer)
	}
	for _, entry := range staleEntries {
		if err := os.RemoveAll(filepath.Join(root, entry)); err != nil {
			return fmt.Errorf("%w: clear %s: %v", ErrTransfer, entry, err)
		}
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	if err := src.CopyTo(root); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	return nil
}

func (l Local) Run(ctx context.Context, command string) (Result, error) {
	start := time.Now()
	stdout, stderr, code, err := l.runner().Run(ctx, l.shell(), "-c", command)
	return Result{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: int(code),
		Duration: time.Since(start),
	}, err
}

func (l Local) runner() tools.CommandRunner {
	if l.Runner == nil {
		return tools.ExecRunner{}
	}
	return l.Runner
}

func (l Local) shell() string {
	if s := strings.TrimSpace(l.Shell); s != "" {
		return s
	}
	return "sh"
}
