// Package sandbox owns local staging directories.
//
// Ownership boundary:
// - sandbox directory lifecycle (create, import, cleanup)
//
// - filesystem containment for imported trees
//
// - packaging the sandbox for transfer (directory copy, tar+gzip stream)
package sandbox
