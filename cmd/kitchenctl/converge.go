package main

import (
	"errors"
	"fmt"

	"github.com/danmuck/kitchenctl/internal/observability"
	"github.com/danmuck/kitchenctl/internal/provision"
	"github.com/danmuck/kitchenctl/internal/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newConvergeCommand(root *rootOptions) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "converge",
		Short: "Stage, transfer and run chef-client on every target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := loadSuite(root.configPath)
			if err != nil {
				return err
			}
			targets, err := selectTargets(suite.Targets, only)
			if err != nil {
				return err
			}
			observability.RegisterMetrics()

			workspaces := make([]*workspace, 0, len(targets))
			defer func() {
				for _, ws := range workspaces {
					ws.release(suite.KeepSandbox)
				}
			}()

			jobs := make([]provision.Job, 0, len(targets))
			for _, target := range targets {
				ws, err := stageTarget(suite, target)
				if err != nil {
					return err
				}
				workspaces = append(workspaces, ws)

				channel, err := channelFor(target)
				if err != nil {
					return fmt.Errorf("target %q: %w", target.Name, err)
				}
				jobs = append(jobs, ws.job(transport.Executor{Channel: channel, Source: ws.sandbox}))
			}

			orchestrator := provision.New(provision.Options{})
			results, runErr := orchestrator.ProvisionAll(cmd.Context(), jobs, provision.BatchOptions{
				Parallelism: suite.Parallelism,
				FailFast:    suite.FailFast,
			})

			out := cmd.OutOrStdout()
			for _, result := range results {
				status := "ok"
				if result.Err != nil {
					status = "failed: " + result.Err.Error()
				}
				fmt.Fprintf(out, "%s [%s] %s\n", result.Instance, result.Plan.Phase, status)
			}

			if suite.MetricsFile != "" {
				if err := observability.WriteTextfile(suite.MetricsFile); err != nil {
					log.Warn().Err(err).Str("path", suite.MetricsFile).Msg("write metrics textfile")
					runErr = errors.Join(runErr, err)
				}
			}
			return runErr
		},
	}
	cmd.Flags().StringSliceVarP(&only, "target", "t", nil, "Limit to the named targets")
	return cmd
}
