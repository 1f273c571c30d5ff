package types

import "time"

// Result is the terminal record of one workflow execution. Immutable once
// produced; Success is defined as "the error sequence is empty".
type Result struct {
	TaskID     string        `json:"task_id"`
	EmployeeID string        `json:"employee_id"`
	Kind       string        `json:"kind"`
	Success    bool          `json:"success"`
	Results    []string      `json:"results"`
	Errors     []string      `json:"errors"`
	Elapsed    time.Duration `json:"elapsed"`
	Model      string        `json:"model,omitempty"`
}

// Final returns the last produced result string, or "" when nothing was
// produced.
func (r Result) Final() string {
	if len(r.Results) == 0 {
		return ""
	}
	return r.Results[len(r.Results)-1]
}

// RejectionReason explains why a task was refused before any workflow ran.
type RejectionReason string

const (
	// RejectNotAssigned: the task carries no assignee at all.
	RejectNotAssigned RejectionReason = "not_assigned"
	// RejectUnknownAgent: no registered employee matches the assignee name.
	RejectUnknownAgent RejectionReason = "unknown_agent"
	// RejectStatusNotProcessable: task status is outside {Pending, Active}.
	RejectStatusNotProcessable RejectionReason = "status_not_processable"
	// RejectNoCapabilityMatch: no reaction of the assigned employee matched.
	RejectNoCapabilityMatch RejectionReason = "no_capability_match"
	// RejectAlreadyComplete: redelivered task that already finished; a no-op.
	RejectAlreadyComplete RejectionReason = "already_complete"
	// RejectEmployeeInactive: the assigned employee has been deactivated.
	RejectEmployeeInactive RejectionReason = "employee_inactive"
)

// Rejection pairs a reason with detail for logs and metrics.
type Rejection struct {
	Reason RejectionReason
	Detail string
}

func (r Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return string(r.Reason) + ": " + r.Detail
}
