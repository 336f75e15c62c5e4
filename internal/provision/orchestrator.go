package provision

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/danmuck/kitchenctl/internal/chefclient"
	"github.com/danmuck/kitchenctl/internal/observability"
	"github.com/rs/zerolog/log"
)

// Options overrides the orchestrator collaborators. Nil fields use the
// chefclient implementations.
type Options struct {
	Credentials CredentialStager
	ConfigFile  FileWriter
	Attributes  FileWriter
}

// Orchestrator sequences the chefclient components for one target at a time.
// It holds no per-run state and is safe to share between goroutines.
type Orchestrator struct {
	credentials CredentialStager
	configFile  FileWriter
	attributes  FileWriter
}

func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		credentials: opts.Credentials,
		configFile:  opts.ConfigFile,
		attributes:  opts.Attributes,
	}
	if o.credentials == nil {
		o.credentials = chefclient.NewCredentialStager()
	}
	if o.configFile == nil {
		o.configFile = chefclient.ConfigFileWriter{}
	}
	if o.attributes == nil {
		o.attributes = chefclient.AttributesWriter{}
	}
	return o
}

// Prepare stages the sandbox and builds both commands without handing off.
func (o *Orchestrator) Prepare(ctx context.Context, job Job) (Plan, error) {
	plan := Plan{
		Instance:  job.Instance,
		RootPath:  job.Config.RootPath,
		Elevation: job.Config.Elevation(),
		Phase:     PhasePending,
	}
	cfg := job.Config

	err := o.step(ctx, &plan, PhaseSandboxReady, func() error {
		if job.Sandbox == nil {
			return fmt.Errorf("%w: instance=%q has no sandbox", ErrSandboxUnavailable, job.Instance)
		}
		path := job.Sandbox.Path()
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSandboxUnavailable, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrSandboxUnavailable, path)
		}
		plan.SandboxPath = path
		return nil
	})
	if err != nil {
		return plan, err
	}

	err = o.step(ctx, &plan, PhaseCredentialsStaged, func() error {
		if err := o.credentials.Stage(plan.SandboxPath); err != nil {
			return err
		}
		plan.Files = append(plan.Files, chefclient.ValidationPEM, chefclient.ClientPEM)
		return nil
	})
	if err != nil {
		return plan, err
	}

	err = o.step(ctx, &plan, PhaseConfigWritten, func() error {
		name, err := o.configFile.Write(plan.SandboxPath, cfg)
		if err != nil {
			return err
		}
		plan.ConfigFilename = name
		plan.ConfigFilepath = cfg.RemotePath(name)
		plan.Files = append(plan.Files, name)
		return nil
	})
	if err != nil {
		return plan, err
	}

	err = o.step(ctx, &plan, PhaseAttributesWritten, func() error {
		name, err := o.attributes.Write(plan.SandboxPath, cfg)
		if err != nil {
			return err
		}
		plan.Files = append(plan.Files, name)
		return nil
	})
	if err != nil {
		return plan, err
	}

	err = o.step(ctx, &plan, PhasePrepareCommandReady, func() error {
		plan.Prepare = chefclient.BuildPrepareCommand(cfg.RootPath, plan.ConfigFilepath)
		return nil
	})
	if err != nil {
		return plan, err
	}

	err = o.step(ctx, &plan, PhaseRunCommandReady, func() error {
		args, err := chefclient.BuildRunArgs(plan.ConfigFilename, cfg)
		if err != nil {
			return err
		}
		plan.Run = chefclient.BuildRunCommand(cfg.Family(), cfg.ChefClientPath, args)
		return nil
	})
	return plan, err
}

// Provision prepares the plan and hands it to the job's Handoff.
func (o *Orchestrator) Provision(ctx context.Context, job Job) (Plan, error) {
	plan, err := o.Prepare(ctx, job)
	if err == nil {
		err = o.step(ctx, &plan, PhaseHandedOff, func() error {
			if job.Handoff == nil {
				return fmt.Errorf("%w: instance=%q", ErrNoHandoff, job.Instance)
			}
			return job.Handoff.Handoff(ctx, plan)
		})
	}

	observability.RecordProvisionRun(string(plan.Phase), err == nil)
	if err != nil {
		log.Error().
			Str("instance", job.Instance).
			Str("phase", string(plan.Phase)).
			Err(err).
			Msg("provision aborted")
		return plan, err
	}
	log.Info().
		Str("instance", job.Instance).
		Str("sandbox", plan.SandboxPath).
		Msg("provision handed off")
	return plan, nil
}

// step runs fn and advances plan to next only when fn succeeds.
func (o *Orchestrator) step(ctx context.Context, plan *Plan, next Phase, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if err := fn(); err != nil {
		return err
	}
	plan.Phase = next
	observability.RecordProvisionPhase(string(next), time.Since(start))
	log.Debug().
		Str("instance", plan.Instance).
		Str("phase", string(next)).
		Msg("provision phase complete")
	return nil
}
