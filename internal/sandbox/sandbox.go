package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrSandboxViolation = errors.New("sandbox: violation")
	ErrSandboxClosed    = errors.New("sandbox: closed")
)

// Sandbox is a temporary directory owned by one provisioning run.
type Sandbox struct {
	instance string
	root     string
	closed   bool
}

// New creates an empty sandbox under baseDir. An empty baseDir uses the OS temp dir.
func New(baseDir, instance string) (*Sandbox, error) {
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, err
		}
	}
	root, err := os.MkdirTemp(baseDir, sanitizeInstance(instance)+"-sandbox-")
	if err != nil {
		return nil, fmt.Errorf("create sandbox: %w", err)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("instance", instance).Str("path", root).Msg("sandbox created")
	return &Sandbox{instance: instance, root: root}, nil
}

func (s *Sandbox) Path() string {
	return s.root
}

func (s *Sandbox) Instance() string {
	return s.instance
}

// Import copies a file or directory tree from src to rel inside the sandbox.
// Symlinks are rejected and rel must stay inside the sandbox root.
func (s *Sandbox) Import(src, rel string) error {
	if s.closed {
		return ErrSandboxClosed
	}
	rel = strings.TrimSpace(rel)
	if rel == "" || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: destination must be relative: %q", ErrSandboxViolation, rel)
	}
	dest := filepath.Clean(filepath.Join(s.root, rel))
	if !isWithin(dest, s.root) || dest == s.root {
		return fmt.Errorf("%w: destination=%q outside sandbox", ErrSandboxViolation, rel)
	}

	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: symlinks are not allowed for source=%q", ErrSandboxViolation, src)
	}
	if !info.IsDir() {
		return writeCopy(src, dest, info.Mode().Perm())
	}
	copied, err := copyTree(src, dest)
	if err != nil {
		return err
	}
	log.Info().
		Str("instance", s.instance).
		Str("source", src).
		Str("dest", rel).
		Int("files", copied).
		Msg("imported into sandbox")
	return nil
}

// Files lists regular files relative to the sandbox root, slash-separated and sorted.
func (s *Sandbox) Files() ([]string, error) {
	if s.closed {
		return nil, ErrSandboxClosed
	}
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CopyTo mirrors the sandbox tree into dst.
func (s *Sandbox) CopyTo(dst string) error {
	if s.closed {
		return ErrSandboxClosed
	}
	_, err := copyTree(s.root, dst)
	return err
}

// Cleanup removes the sandbox directory. It is safe to call more than once.
func (s *Sandbox) Cleanup() error {
	if s.closed {
		return nil
	}
	s.closed = true
	log.Debug().Str("instance", s.instance).Str("path", s.root).Msg("sandbox removed")
	return os.RemoveAll(s.root)
}

func sanitizeInstance(instance string) string {
	instance = strings.TrimSpace(instance)
	if instance == "" {
		return "kitchen"
	}
	var b strings.Builder
	for _, r := range instance {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
