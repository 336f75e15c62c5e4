package main

import (
	"fmt"
	"io"

	"github.com/danmuck/kitchenctl/internal/provision"
	"github.com/spf13/cobra"
)

func newPlanCommand(root *rootOptions) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Stage each target's sandbox and print the commands without running them",
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

			orchestrator := provision.New(provision.Options{})
			for _, target := range targets {
				ws, err := stageTarget(suite, target)
				if err != nil {
					return err
				}
				plan, err := orchestrator.Prepare(cmd.Context(), ws.job(nil))
				if err == nil {
					printPlan(cmd.OutOrStdout(), plan)
				}
				ws.release(suite.KeepSandbox)
				if err != nil {
					return fmt.Errorf("target %q: %w", target.Name, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&only, "target", "t", nil, "Limit to the named targets")
	return cmd
}

func printPlan(w io.Writer, plan provision.Plan) {
	fmt.Fprintf(w, "== %s\n", plan.Instance)
	fmt.Fprintf(w, "sandbox: %s\n", plan.SandboxPath)
	fmt.Fprintf(w, "root:    %s\n", plan.RootPath)
	for _, file := range plan.Files {
		fmt.Fprintf(w, "  + %s\n", file)
	}
	fmt.Fprintf(w, "prepare: %s\n", plan.PrepareLine())
	fmt.Fprintf(w, "run:     %s\n", plan.RunLine())
}
