package main

import (
	"github.com/danmuck/kitchenctl/internal/api"
	"github.com/spf13/cobra"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := loadSuite(root.configPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = suite.API.Addr
			}
			return api.New(suite.Name, addr, suite.API.CorsOrigins).Serve()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to api.addr from the suite file)")
	return cmd
}
