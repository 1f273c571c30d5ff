// Package memory persists per-agent memories in redis and retrieves the
// ones most relevant to a query by keyword overlap. Retrieval is advisory
// context for workflow runs, not a source of truth.
package memory
