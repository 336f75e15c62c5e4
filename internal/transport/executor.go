package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/danmuck/kitchenctl/internal/observability"
	"github.com/danmuck/kitchenctl/internal/provision"
	"github.com/danmuck/kitchenctl/internal/remote"
	"github.com/rs/zerolog/log"
)

// Executor hands a provision plan to a channel: transfer the sandbox, then run
// prepare, then run. A failing step stops the sequence.
type Executor struct {
	Channel Channel
	Source  Source
}

var _ provision.Handoff = Executor{}

func (e Executor) Handoff(ctx context.Context, plan provision.Plan) error {
	if e.Channel == nil {
		return fmt.Errorf("%w: no channel for instance=%q", ErrUnsupportedTransport, plan.Instance)
	}
	if e.Source == nil {
		return fmt.Errorf("%w: no sandbox source for instance=%q", ErrTransfer, plan.Instance)
	}

	log.Info().
		Str("instance", plan.Instance).
		Str("transport", e.Channel.Name()).
		Str("root", plan.RootPath).
		Msg("transferring sandbox")
	if err := e.Channel.Transfer(ctx, e.Source, plan.RootPath); err != nil {
		return err
	}

	steps := []struct {
		name string
		cmd  remote.CommandSpec
	}{
		{name: "prepare", cmd: plan.Prepare},
		{name: "run", cmd: plan.Run},
	}
	for _, step := range steps {
		if err := e.run(ctx, plan, step.name, step.cmd.Render(plan.Elevation)); err != nil {
			return err
		}
	}
	return nil
}

func (e Executor) run(ctx context.Context, plan provision.Plan, step, line string) error {
	log.Info().
		Str("instance", plan.Instance).
		Str("step", step).
		Str("command", line).
		Msg("executing remote command")

	result, err := e.Channel.Run(ctx, line)
	observability.RecordRemoteCommand(e.Channel.Name(), step, result.ExitCode, result.Duration)
	if out := strings.TrimSpace(string(result.Stdout)); out != "" {
		log.Debug().Str("instance", plan.Instance).Str("step", step).Msg(out)
	}
	if err == nil && result.ExitCode == 0 {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf(
		"%w: instance=%q step=%s exit=%d stderr=%q: %v",
		ErrCommandFailed,
		plan.Instance,
		step,
		result.ExitCode,
		strings.TrimSpace(string(result.Stderr)),
		err,
	)
}
