// Package transport owns remote execution channels and plan execution.
//
// Ownership boundary:
// - local and ssh channels
//
// - sandbox transfer onto the target
//
// - executing a provision plan's prepare and run commands in order
//
// Transports never build commands; they render the CommandSpec values a plan
// carries. Nothing is retried here.
package transport
