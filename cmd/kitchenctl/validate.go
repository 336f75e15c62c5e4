package main

import (
	"fmt"

	"github.com/danmuck/kitchenctl/internal/chefclient"
	"github.com/spf13/cobra"
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the suite file and every target's provisioner settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := loadSuite(root.configPath)
			if err != nil {
				return err
			}
			for _, target := range suite.Targets {
				cfg, err := chefclient.Decode(suite.ProvisionerFor(target))
				if err != nil {
					return fmt.Errorf("target %q: %w", target.Name, err)
				}
				if _, err := chefclient.RenderConfigFile(cfg); err != nil {
					return fmt.Errorf("target %q: %w", target.Name, err)
				}
				if _, err := chefclient.BuildRunArgs(cfg.ConfigFilename, cfg); err != nil {
					return fmt.Errorf("target %q: %w", target.Name, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d target(s) ok\n", suite.Name, len(suite.Targets))
			return nil
		},
	}
}
