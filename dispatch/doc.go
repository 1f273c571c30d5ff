// Package dispatch drives task processing end to end: validate the
// assignment, move the task through the board's status machine, run the
// routed workflow, and persist the outcome. A bounded worker pool keeps
// concurrent runs under the configured limit.
package dispatch
