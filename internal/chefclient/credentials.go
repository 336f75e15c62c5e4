package chefclient

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

//go:embed support/dummy-validation.pem
var supportFiles embed.FS

const placeholderKeyPath = "support/dummy-validation.pem"

// CredentialStager copies a placeholder key into the sandbox as both the
// validation key and the client key. Chef replaces the client key on first run.
type CredentialStager struct {
	Source fs.FS
	Name   string
}

// NewCredentialStager returns a stager backed by the bundled placeholder key.
func NewCredentialStager() CredentialStager {
	return CredentialStager{Source: supportFiles, Name: placeholderKeyPath}
}

// Stage writes validation.pem and client.pem into sandboxPath. The source is
// read before any write so a missing placeholder leaves the sandbox untouched.
func (s CredentialStager) Stage(sandboxPath string) error {
	if s.Source == nil {
		return fmt.Errorf("%w: no placeholder source configured", ErrResourceMissing)
	}
	data, err := fs.ReadFile(s.Source, s.Name)
	if err != nil {
		return fmt.Errorf("%w: placeholder=%q: %v", ErrResourceMissing, s.Name, err)
	}

	for _, name := range []string{ValidationPEM, ClientPEM} {
		log.Info().Str("file", name).Msg("preparing credential")
		log.Debug().Str("file", name).Str("source", s.Name).Msg("using placeholder key")
		if err := os.WriteFile(filepath.Join(sandboxPath, name), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}
