package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/aicrew/types"
)

// TaskRecord is the persisted processing state of one task.
type TaskRecord struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Description string
	Assignee    string
	Status      string `gorm:"index"`
	Processed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CommentRecord is one result or failure comment on a task.
type CommentRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	TaskID    string `gorm:"index"`
	Body      string
	CreatedAt time.Time
}

// EventRecord is one persisted domain event.
type EventRecord struct {
	ID         string `gorm:"primaryKey"`
	Kind       string `gorm:"index"`
	EmployeeID string `gorm:"index"`
	TaskID     string `gorm:"index"`
	Detail     string
	OccurredAt time.Time
}

// Store implements Tracker on a gorm database.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the sqlite database at path and migrates the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, types.NewError(types.ErrTracker, "board: open database").WithCause(err)
	}
	return NewStore(db, logger)
}

// NewStore wraps an existing gorm database and migrates the schema.
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&TaskRecord{}, &CommentRecord{}, &EventRecord{}); err != nil {
		return nil, types.NewError(types.ErrTracker, "board: migrate schema").WithCause(err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "board_store")),
	}, nil
}

// SaveTask creates or refreshes the task row. The processed flag and an
// already-advanced status survive refreshes from redelivered payloads.
func (s *Store) SaveTask(ctx context.Context, task types.Task) error {
	if task.ID == "" {
		return types.NewError(types.ErrTracker, "board: task id must not be empty")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing TaskRecord
		err := tx.First(&existing, "id = ?", task.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec := TaskRecord{
				ID:          task.ID,
				Title:       task.Title,
				Description: task.Description,
				Assignee:    task.Assignee,
				Status:      string(task.Status),
			}
			return tx.Create(&rec).Error
		}
		if err != nil {
			return err
		}
		existing.Title = task.Title
		existing.Description = task.Description
		existing.Assignee = task.Assignee
		return tx.Save(&existing).Error
	})
}

// UpdateStatus moves the task through the status machine. Writing the
// current status again is a no-op; a disallowed transition is an error.
func (s *Store) UpdateStatus(ctx context.Context, taskID string, status types.TaskStatus) error {
	if !status.Valid() {
		return types.NewError(types.ErrTracker, fmt.Sprintf("board: invalid status %q", status))
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec TaskRecord
		if err := tx.First(&rec, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewError(types.ErrTracker, "board: unknown task "+taskID)
			}
			return err
		}
		from := types.TaskStatus(rec.Status)
		if from == status {
			return nil
		}
		if !CanTransition(from, status) {
			return types.NewError(types.ErrTracker,
				fmt.Sprintf("board: transition %s -> %s not allowed for task %s", from, status, taskID))
		}
		rec.Status = string(status)
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		s.logger.Debug("task status updated",
			zap.String("task_id", taskID),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
		)
		return nil
	})
}

// PostComment appends a comment to the task.
func (s *Store) PostComment(ctx context.Context, taskID, body string) error {
	if body == "" {
		return types.NewError(types.ErrTracker, "board: comment body must not be empty")
	}
	rec := CommentRecord{TaskID: taskID, Body: body, CreatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return types.NewError(types.ErrTracker, "board: post comment").WithCause(err).WithRetryable(true)
	}
	return nil
}

// MarkProcessed flags the task so a redelivery is recognized and skipped.
func (s *Store) MarkProcessed(ctx context.Context, taskID string) error {
	res := s.db.WithContext(ctx).Model(&TaskRecord{}).
		Where("id = ?", taskID).
		Update("processed", true)
	if res.Error != nil {
		return types.NewError(types.ErrTracker, "board: mark processed").WithCause(res.Error).WithRetryable(true)
	}
	if res.RowsAffected == 0 {
		return types.NewError(types.ErrTracker, "board: unknown task "+taskID)
	}
	return nil
}

// IsProcessed reports whether the task already completed a run. Unknown
// tasks report false.
func (s *Store) IsProcessed(ctx context.Context, taskID string) (bool, error) {
	var rec TaskRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, types.NewError(types.ErrTracker, "board: lookup task").WithCause(err).WithRetryable(true)
	}
	return rec.Processed, nil
}

// SaveEvent appends one domain event. Replaying an event id is a no-op.
func (s *Store) SaveEvent(ctx context.Context, event types.DomainEvent) error {
	rec := EventRecord{
		ID:         event.ID,
		Kind:       string(event.Kind),
		EmployeeID: event.EmployeeID,
		TaskID:     event.TaskID,
		Detail:     event.Detail,
		OccurredAt: event.OccurredAt,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return types.NewError(types.ErrTracker, "board: save event").WithCause(err).WithRetryable(true)
	}
	return nil
}

// Task returns the stored record for inspection.
func (s *Store) Task(ctx context.Context, taskID string) (TaskRecord, error) {
	var rec TaskRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TaskRecord{}, types.NewError(types.ErrTracker, "board: unknown task "+taskID)
	}
	if err != nil {
		return TaskRecord{}, types.NewError(types.ErrTracker, "board: lookup task").WithCause(err)
	}
	return rec, nil
}

// Comments returns the task's comments oldest first.
func (s *Store) Comments(ctx context.Context, taskID string) ([]CommentRecord, error) {
	var out []CommentRecord
	err := s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, types.NewError(types.ErrTracker, "board: list comments").WithCause(err)
	}
	return out, nil
}

// Events returns the stored domain events for a task, oldest first.
func (s *Store) Events(ctx context.Context, taskID string) ([]EventRecord, error) {
	var out []EventRecord
	err := s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("occurred_at asc").
		Find(&out).Error
	if err != nil {
		return nil, types.NewError(types.ErrTracker, "board: list events").WithCause(err)
	}
	return out, nil
}
