// Package api owns the kitchenctl planning HTTP surface.
//
// Ownership boundary:
// - health, readiness and metrics endpoints
//
// - dry-run planning: render client.rb, dna.json and both commands for a
//   provisioner map without staging anything on disk
package api
