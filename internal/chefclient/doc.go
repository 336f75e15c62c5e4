// Package chefclient owns the chef-client provisioner core.
//
// Ownership boundary:
// - provisioner configuration decode and default resolution
//
// - sandbox staging: placeholder credentials, client.rb, dna.json
//
// - chef-client argument composition and prepare/run command assembly
//
// The package never creates or transports the sandbox and never executes a
// command. Callers own the sandbox directory and hand the produced commands to
// a transport.
package chefclient
