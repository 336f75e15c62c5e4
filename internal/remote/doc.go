// Package remote owns the target-side command and path primitives.
//
// Ownership boundary:
// - command token sequences and privilege elevation
//
// - shell quoting for the target shell
//
// - path joining for unix and windows-family targets
//
// Nothing in this package executes commands; transports consume CommandSpec
// values and render them for their channel.
package remote
