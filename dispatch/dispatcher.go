package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/aicrew/agent"
	"github.com/BaSui01/aicrew/board"
	"github.com/BaSui01/aicrew/internal/metrics"
	"github.com/BaSui01/aicrew/types"
	"github.com/BaSui01/aicrew/workflow"
)

// Dispatcher takes validated tasks through a full workflow run and records
// every side effect on the board.
type Dispatcher struct {
	validator *agent.Validator
	engine    *workflow.Engine
	tracker   board.Tracker
	collector *metrics.Collector
	logger    *zap.Logger

	sem   *semaphore.Weighted
	group *errgroup.Group
}

// New creates a dispatcher. maxConcurrent bounds simultaneous workflow
// runs; collector may be nil when metrics are not wanted.
func New(validator *agent.Validator, engine *workflow.Engine, tracker board.Tracker,
	collector *metrics.Collector, maxConcurrent int, logger *zap.Logger) (*Dispatcher, error) {
	if maxConcurrent < 1 {
		return nil, fmt.Errorf("dispatch: maxConcurrent must be at least 1, got %d", maxConcurrent)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		validator: validator,
		engine:    engine,
		tracker:   tracker,
		collector: collector,
		logger:    logger.With(zap.String("component", "dispatcher")),
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		group:     &errgroup.Group{},
	}, nil
}

// Handle is the queue handler: it admits the task into the worker pool and
// returns once a slot is acquired, so queue consumption keeps pace with
// available capacity.
func (d *Dispatcher) Handle(ctx context.Context, task types.Task) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return types.NewError(types.ErrTimeout, "dispatch: shutting down").
			WithCause(err).WithRetryable(true)
	}
	d.group.Go(func() error {
		defer d.sem.Release(1)
		d.Process(ctx, task)
		return nil
	})
	return nil
}

// Wait blocks until all in-flight runs finish.
func (d *Dispatcher) Wait() {
	d.group.Wait()
}

// Process runs one task to completion. All outcomes are absorbed here:
// rejections and failed runs are recorded, not propagated.
func (d *Dispatcher) Process(ctx context.Context, task types.Task) {
	logger := d.logger.With(zap.String("task_id", task.ID), zap.String("title", task.Title))

	if d.collector != nil {
		d.collector.TaskStarted()
		defer d.collector.TaskFinished()
	}

	done, err := d.tracker.IsProcessed(ctx, task.ID)
	if err != nil {
		logger.Error("processed lookup failed", zap.Error(err))
		return
	}
	if done {
		logger.Info("skipping redelivered task")
		return
	}

	if err := d.tracker.SaveTask(ctx, task); err != nil {
		logger.Error("task save failed", zap.Error(err))
		return
	}

	route, rejection := d.validator.Validate(task)
	if rejection != nil {
		if d.collector != nil {
			d.collector.ObserveRejection(rejection.Reason)
		}
		// A completed task that comes around again counts as handled.
		if rejection.Reason == types.RejectAlreadyComplete {
			if err := d.tracker.MarkProcessed(ctx, task.ID); err != nil {
				logger.Error("mark processed failed", zap.Error(err))
			}
		}
		return
	}

	employee := route.Employee
	logger = logger.With(zap.String("employee", employee.Name()), zap.String("kind", route.Kind))

	if err := d.tracker.UpdateStatus(ctx, task.ID, types.StatusActive); err != nil {
		logger.Error("status update to active failed", zap.Error(err))
		return
	}

	result, err := d.engine.Execute(ctx, route.Kind, task, employee)
	if err != nil {
		// Contract violations: the graph itself is broken; hand the task
		// back so a fixed deployment can pick it up.
		logger.Error("workflow execution failed", zap.Error(err))
		d.revert(ctx, task, logger)
		return
	}

	if d.collector != nil {
		d.collector.ObserveRun(result.Kind, result.Success, result.Elapsed)
	}
	employee.RecordOutcome(result)
	d.persistEvents(ctx, employee, logger)

	if result.Success {
		d.complete(ctx, task, result, logger)
		return
	}
	logger.Warn("workflow run failed",
		zap.Int("errors", len(result.Errors)),
		zap.String("last_error", lastError(result)),
	)
	d.revert(ctx, task, logger)
}

func (d *Dispatcher) complete(ctx context.Context, task types.Task, result types.Result, logger *zap.Logger) {
	if err := d.tracker.PostComment(ctx, task.ID, resultComment(result)); err != nil {
		logger.Error("result comment failed", zap.Error(err))
	}
	if err := d.tracker.UpdateStatus(ctx, task.ID, types.StatusComplete); err != nil {
		logger.Error("status update to complete failed", zap.Error(err))
		return
	}
	if err := d.tracker.MarkProcessed(ctx, task.ID); err != nil {
		logger.Error("mark processed failed", zap.Error(err))
		return
	}
	logger.Info("task completed", zap.Duration("elapsed", result.Elapsed))
}

// revert hands a failed task back to the board so it can be retried or
// reassigned by a human.
func (d *Dispatcher) revert(ctx context.Context, task types.Task, logger *zap.Logger) {
	if err := d.tracker.UpdateStatus(ctx, task.ID, types.StatusPending); err != nil {
		logger.Error("status revert failed", zap.Error(err))
	}
}

func (d *Dispatcher) persistEvents(ctx context.Context, employee *agent.Employee, logger *zap.Logger) {
	for _, event := range employee.DrainEvents() {
		if err := d.tracker.SaveEvent(ctx, event); err != nil {
			logger.Error("event save failed",
				zap.String("event_id", event.ID),
				zap.String("kind", string(event.Kind)),
				zap.Error(err),
			)
		}
	}
}

func resultComment(result types.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Processed by %s (%s workflow, %s)\n\n", result.EmployeeID, result.Kind, result.Elapsed.Round(time.Millisecond))
	b.WriteString(result.Final())
	return b.String()
}

func lastError(result types.Result) string {
	if len(result.Errors) == 0 {
		return ""
	}
	return result.Errors[len(result.Errors)-1]
}
