package remote

import "strings"

// CommandSpec is one shell invocation as ordered, pre-quoted tokens.
type CommandSpec struct {
	Tokens   []string
	Elevated bool
}

// Elevation carries the target's privilege and prefix settings used at render time.
type Elevation struct {
	Sudo        bool
	SudoCommand string
	Prefix      string
}

// NewCommand copies tokens into an elevated or plain command spec.
func NewCommand(elevated bool, tokens ...string) CommandSpec {
	out := make([]string, len(tokens))
	copy(out, tokens)
	return CommandSpec{Tokens: out, Elevated: elevated}
}

// String joins the tokens without elevation.
func (c CommandSpec) String() string {
	return strings.Join(c.Tokens, " ")
}

// Render produces the final command line: prefix, then sudo when the command
// is elevated and sudo is enabled, then the tokens.
func (c CommandSpec) Render(e Elevation) string {
	line := c.String()
	sudo := strings.TrimSpace(e.SudoCommand)
	if c.Elevated && e.Sudo && sudo != "" {
		line = sudo + " " + line
	}
	if prefix := strings.TrimSpace(e.Prefix); prefix != "" {
		line = prefix + " " + line
	}
	return line
}
