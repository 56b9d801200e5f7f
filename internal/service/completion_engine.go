package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"habitloop/internal/model"
	"habitloop/internal/repository"
	"habitloop/internal/schedule"
)

// CompletionEngine validates and applies completions. Each completion is a
// single read-validate-write transaction; attempts on the same task are
// additionally serialized by a per-task lock so two concurrent calls can
// never both observe the same earliest outstanding occurrence.
type CompletionEngine struct {
	db      *gorm.DB
	lenient bool

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewCompletionEngine creates the engine. With lenient set, completing an
// occurrence after its day has passed does not by itself reset the streak;
// only a gap in the completed sequence does.
func NewCompletionEngine(db *gorm.DB, lenient bool) *CompletionEngine {
	return &CompletionEngine{
		db:      db,
		lenient: lenient,
		locks:   make(map[uint]*sync.Mutex),
	}
}

func (e *CompletionEngine) lockFor(taskID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[taskID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[taskID] = lock
	}
	return lock
}

// Complete records that the occurrence of the task due on date was done.
// Only the earliest outstanding occurrence may be completed; repeating a
// completion yields ErrAlreadyCompleted and changes nothing, so client
// retries after a dropped response cannot corrupt the streak.
func (e *CompletionEngine) Complete(ctx context.Context, userID, taskID uint, date, now time.Time) (*model.Task, error) {
	lock := e.lockFor(taskID)
	lock.Lock()
	defer lock.Unlock()

	day := schedule.Day(date)

	var updated *model.Task
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := repository.NewTaskRepository(tx)
		completions := repository.NewCompletionRepository(tx)

		task, err := tasks.FindByID(ctx, userID, taskID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		if err != nil {
			return err
		}

		// Idempotence check before the ordering check: a retried
		// completion must read as "already done", not "out of order",
		// even though the task has advanced past it by then.
		done, err := completions.Exists(ctx, task.ID, day)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyCompleted
		}

		if !day.Equal(schedule.Day(task.NextDueAt)) {
			return ErrOutOfOrder
		}

		if err := completions.Append(ctx, &model.Completion{
			TaskID:      task.ID,
			Date:        day,
			CompletedAt: now,
		}); err != nil {
			return err
		}

		streak, err := e.nextStreak(ctx, completions, task, day, now)
		if err != nil {
			return err
		}
		task.Streak = streak

		// Advance strictly past the completed occurrence, but never
		// park the task in the past when it was completed late.
		anchor := day.AddDate(0, 0, 1)
		if today := schedule.Day(now); today.After(anchor) {
			anchor = today
		}
		next, err := schedule.NextDue(task.Frequency, anchor)
		if err != nil {
			return err
		}
		task.NextDueAt = next

		if err := tasks.Save(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// nextStreak decides whether this completion extends the streak. It
// extends when the completion is on time and the generated occurrence
// immediately before it was completed (or this is the task's first
// occurrence); anything else is a gap and restarts the count at 1.
func (e *CompletionEngine) nextStreak(ctx context.Context, completions *repository.CompletionRepository, task *model.Task, day, now time.Time) (int, error) {
	onTime := !schedule.Day(now).After(day)
	if !onTime && !e.lenient {
		return 1, nil
	}

	prev, err := schedule.PrevDue(task.Frequency, day)
	if err != nil {
		return 0, err
	}

	// The first generated occurrence has no predecessor on or after the
	// task's creation date.
	if prev.Before(schedule.Day(task.CreatedAt)) {
		return task.Streak + 1, nil
	}

	prevDone, err := completions.Exists(ctx, task.ID, prev)
	if err != nil {
		return 0, err
	}
	if prevDone {
		return task.Streak + 1, nil
	}
	return 1, nil
}
