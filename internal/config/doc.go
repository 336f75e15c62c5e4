// Package config owns kitchenctl suite files.
//
// Ownership boundary:
// - suite decode (.toml, .yml, .yaml) and validation
//
// - layering target provisioner maps over the suite map
//
// - starter templates
//
// The provisioner maps stay untyped here; chefclient.Decode owns their schema.
package config
