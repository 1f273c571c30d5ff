package agent

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/check"
	"github.com/BaSui01/aicrew/types"
)

// Route is a successful validation outcome: the resolved employee and the
// workflow kind that will handle the task.
type Route struct {
	Employee *Employee
	Kind     string
}

// Validator decides whether a task may be handed to its assigned employee.
// Each failure mode yields its own rejection reason; the check order below
// is what makes the reasons distinguishable.
type Validator struct {
	registry *Registry
	logger   *zap.Logger
}

// NewValidator creates a validator over the given registry.
func NewValidator(registry *Registry, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		registry: registry,
		logger:   logger.With(zap.String("component", "assignment_validator")),
	}
}

// Validate resolves the assignment chain for a task. On success it returns
// the route; otherwise a rejection carrying the specific reason.
func (v *Validator) Validate(task types.Task) (Route, *types.Rejection) {
	if !task.HasAssignee() {
		return v.reject(task, types.RejectNotAssigned, "task has no assignee")
	}

	employee, ok := v.registry.ByName(task.Assignee)
	if !ok {
		return v.reject(task, types.RejectUnknownAgent,
			fmt.Sprintf("no employee registered for assignee %q", task.Assignee))
	}

	if !employee.Active() {
		return v.reject(task, types.RejectEmployeeInactive, "employee "+employee.Name()+" is deactivated")
	}

	// Redelivered tasks that already finished are a no-op, not an error.
	if task.Status == types.StatusComplete {
		return v.reject(task, types.RejectAlreadyComplete, "task already complete")
	}
	if task.Status != types.StatusPending && task.Status != types.StatusActive {
		return v.reject(task, types.RejectStatusNotProcessable,
			fmt.Sprintf("status %q is not processable", task.Status))
	}

	kind, ok := employee.RoutedKind(task)
	if !ok {
		return v.reject(task, types.RejectNoCapabilityMatch, v.capabilityDetail(employee, task))
	}

	v.logger.Debug("task routed",
		zap.String("task_id", task.ID),
		zap.String("employee", employee.Name()),
		zap.String("kind", kind),
	)
	return Route{Employee: employee, Kind: kind}, nil
}

func (v *Validator) reject(task types.Task, reason types.RejectionReason, detail string) (Route, *types.Rejection) {
	v.logger.Warn("task rejected",
		zap.String("task_id", task.ID),
		zap.String("title", task.Title),
		zap.String("reason", string(reason)),
		zap.String("detail", detail),
	)
	return Route{}, &types.Rejection{Reason: reason, Detail: detail}
}

// capabilityDetail explains which reactions failed and why, for operator
// logs.
func (v *Validator) capabilityDetail(e *Employee, task types.Task) string {
	reactions := e.Reactions()
	if len(reactions) == 0 {
		return "employee has no reactions configured"
	}
	detail := "no matching reaction:"
	for _, r := range reactions {
		detail += fmt.Sprintf(" [%s: %s]", r.Kind, check.Explain(r.Check, task, e))
	}
	return detail
}
