// Package types defines the shared domain types of the aicrew core: tasks
// pulled from an external board, workflow results, rejection reasons, and the
// structured error/domain-event vocabulary used across packages.
package types
