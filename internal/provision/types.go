package provision

import (
	"context"
	"errors"

	"github.com/danmuck/kitchenctl/internal/chefclient"
	"github.com/danmuck/kitchenctl/internal/remote"
)

var (
	ErrSandboxUnavailable = errors.New("provision: sandbox unavailable")
	ErrNoHandoff          = errors.New("provision: no handoff configured")
)

// Phase is the last provisioning step a run completed.
type Phase string

const (
	PhasePending             Phase = "pending"
	PhaseSandboxReady        Phase = "sandbox_ready"
	PhaseCredentialsStaged   Phase = "credentials_staged"
	PhaseConfigWritten       Phase = "config_written"
	PhaseAttributesWritten   Phase = "attributes_written"
	PhasePrepareCommandReady Phase = "prepare_command_ready"
	PhaseRunCommandReady     Phase = "run_command_ready"
	PhaseHandedOff           Phase = "handed_off"
)

// Sandbox is the local staging directory owned by one run.
type Sandbox interface {
	Path() string
}

// Handoff receives a finished plan. Implementations own execution.
type Handoff interface {
	Handoff(ctx context.Context, plan Plan) error
}

// HandoffFunc adapts a function to Handoff.
type HandoffFunc func(ctx context.Context, plan Plan) error

func (f HandoffFunc) Handoff(ctx context.Context, plan Plan) error {
	return f(ctx, plan)
}

// CredentialStager writes credential material into a sandbox.
type CredentialStager interface {
	Stage(sandboxPath string) error
}

// FileWriter renders one configuration-derived file into a sandbox.
type FileWriter interface {
	Write(sandboxPath string, cfg chefclient.Config) (string, error)
}

// Job is one target's provisioning input.
type Job struct {
	Instance string
	Sandbox  Sandbox
	Config   chefclient.Config
	Handoff  Handoff
}

// Plan is the staged sandbox plus both commands for one target.
type Plan struct {
	Instance       string
	SandboxPath    string
	RootPath       string
	ConfigFilename string
	ConfigFilepath string
	Files          []string
	Prepare        remote.CommandSpec
	Run            remote.CommandSpec
	Elevation      remote.Elevation
	Phase          Phase
}

// PrepareLine renders the prepare command for the target shell.
func (p Plan) PrepareLine() string {
	return p.Prepare.Render(p.Elevation)
}

// RunLine renders the run command for the target shell.
func (p Plan) RunLine() string {
	return p.Run.Render(p.Elevation)
}

// Result pairs a job with its outcome in a batch run.
type Result struct {
	Instance string
	Plan     Plan
	Err      error
}
