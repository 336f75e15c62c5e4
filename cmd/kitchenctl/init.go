package main

import (
	"fmt"

	"github.com/danmuck/kitchenctl/internal/config"
	"github.com/spf13/cobra"
)

func newInitCommand(root *rootOptions) *cobra.Command {
	format := formatValue("toml")
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter suite file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.configPath
			if !cmd.Flags().Changed("config") && format == "yaml" {
				path = "kitchen.yaml"
			}
			if err := config.WriteTemplate(path, string(format), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().VarP(&format, "format", "f", "Suite file format (toml, yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing suite file")
	return cmd
}
