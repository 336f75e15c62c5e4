package chefclient

import (
	"fmt"

	"github.com/danmuck/kitchenctl/internal/remote"
	"github.com/rs/zerolog/log"
)

const knifeBinary = "knife"

// BuildPrepareCommand uploads the staged repository into the local chef
// endpoint. knife upload refuses absolute paths, so the directory change and
// the upload run as one shell statement.
func BuildPrepareCommand(rootPath, configFilepath string) remote.CommandSpec {
	statement := fmt.Sprintf(
		"cd %s && %s upload * --config %s",
		remote.Quote(remote.FamilyUnix, rootPath),
		knifeBinary,
		remote.Quote(remote.FamilyUnix, configFilepath),
	)
	cmd := remote.NewCommand(true, "sh", "-c", remote.ShellEscape(statement))
	log.Debug().Str("command", cmd.String()).Msg("prepare command assembled")
	return cmd
}

// BuildRunCommand joins the chef-client binary, quoted for the target family,
// with its already quoted arguments.
func BuildRunCommand(family remote.Family, binaryPath string, args []string) remote.CommandSpec {
	tokens := make([]string, 0, len(args)+1)
	tokens = append(tokens, remote.Quote(family, binaryPath))
	tokens = append(tokens, args...)
	cmd := remote.NewCommand(true, tokens...)
	log.Debug().Str("command", cmd.String()).Msg("run command assembled")
	return cmd
}
