package transport

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrCommandFailed        = errors.New("transport: command failed")
	ErrTransfer             = errors.New("transport: transfer failed")
	ErrUnsupportedTransport = errors.New("transport: unsupported transport")
)

// staleEntries are removed from the remote root before every transfer so
// knife only uploads what the current sandbox carries.
var staleEntries = []string{
	"clients",
	"cookbooks",
	"data",
	"data_bags",
	"encrypted_data_bag_secret",
	"environments",
	"nodes",
	"roles",
	"site-cookbooks",
	"users",
}

// Result is the captured outcome of one remote command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Source is the local sandbox a channel transfers.
type Source interface {
	Path() string
	CopyTo(dst string) error
	WriteArchive(w io.Writer) error
}

// Channel is one execution channel to a target.
type Channel interface {
	Name() string
	Transfer(ctx context.Context, src Source, rootPath string) error
	Run(ctx context.Context, command string) (Result, error)
}
