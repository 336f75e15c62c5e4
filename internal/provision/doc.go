// Package provision owns the provisioning run sequence.
//
// Ownership boundary:
// - phase ordering for one target
//
// - plan assembly from the chefclient core
//
// - handoff of the finished plan to a transport
//
// Lifecycle order:
// - sandbox_ready -> credentials_staged -> config_written -> attributes_written
//   -> prepare_command_ready -> run_command_ready -> handed_off
//
// A failing phase aborts the run and its error is returned unchanged.
// Independent targets run as independent jobs; they share no mutable state.
package provision
