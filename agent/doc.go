// Package agent holds the employee aggregate and its registry: named,
// persona-bearing agents with an ordered reaction list (capability
// predicates bound to workflow kinds) and compiled workflow bindings, plus
// the validator that routes incoming tasks to the right employee and kind.
//
// Employees and their reactions are populated once at startup and treated as
// read-only afterwards; only the activity flag, counters, and pending domain
// events mutate at runtime, under the aggregate's own lock.
package agent
