package main

import (
	"fmt"
	"strings"

	"github.com/danmuck/kitchenctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultConfigPath = "kitchen.toml"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "kitchenctl",
		Short: "Stage chef-client sandboxes and converge targets.",
		Long: `kitchenctl prepares a chef-client sandbox per target, uploads it with
knife into the local chef endpoint and runs chef-client.

  Targets and provisioner settings live in a suite file (kitchen.toml or kitchen.yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logLevel == "" {
				return nil
			}
			level, ok := logging.ParseLevel(opts.logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", opts.logLevel)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to the suite file (.toml, .yml, .yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override the log level (trace, debug, info, warn, error)")

	cmd.AddCommand(
		newInitCommand(opts),
		newValidateCommand(opts),
		newPlanCommand(opts),
		newConvergeCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

// formatValue restricts --format to the suite file formats.
type formatValue string

var _ pflag.Value = (*formatValue)(nil)

func (f *formatValue) String() string {
	return string(*f)
}

func (f *formatValue) Set(raw string) error {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "toml", "yaml":
		*f = formatValue(v)
	case "yml":
		*f = "yaml"
	default:
		return fmt.Errorf("must be toml or yaml")
	}
	return nil
}

func (f *formatValue) Type() string {
	return "format"
}
