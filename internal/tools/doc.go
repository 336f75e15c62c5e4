// Package tools provides reusable host helpers shared by transports.
//
// Ownership boundary:
// - local command execution
package tools
