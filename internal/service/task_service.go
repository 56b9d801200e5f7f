package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"habitloop/internal/model"
	"habitloop/internal/repository"
	"habitloop/internal/schedule"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title     string
	Category  string
	Frequency []string
}

// TaskUpdate carries the mutable fields of a task. Nil means unchanged.
type TaskUpdate struct {
	Title     *string
	Category  *string
	Frequency []string
}

// OccurrenceView is one row of the grouped-by-date view.
type OccurrenceView struct {
	TaskID   uint      `json:"task_id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Streak   int       `json:"streak"`
	Date     time.Time `json:"date"`
}

// DateGroup is every occurrence due on one date, in task order.
type DateGroup struct {
	Date  time.Time        `json:"date"`
	Items []OccurrenceView `json:"occurrences"`
}

// TaskService owns the per-user set of tasks: create, update, delete and
// the grouped occurrence view.
type TaskService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, userRepo: userRepo}
}

// Create validates the input and stores a task with its first due date
// computed from now.
func (s *TaskService) Create(ctx context.Context, userID uint, input TaskInput, now time.Time) (*model.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrEmptyTitle
	}

	freq, err := schedule.ParseFrequency(input.Frequency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, err)
	}

	nextDue, err := schedule.NextDue(freq, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, err)
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "General"
	}

	// The identity layer validates the owner id but never writes here;
	// materialize the account row so the reminder bot can link to it.
	if _, err := s.userRepo.EnsureByID(ctx, userID); err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:    userID,
		Title:     strings.TrimSpace(input.Title),
		Category:  category,
		Frequency: freq,
		NextDueAt: nextDue,
		// Anchor the creation instant to the caller's clock; the streak
		// rule uses it to recognize a task's first occurrence.
		CreatedAt: now,
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies title/category/frequency changes. A frequency change
// recomputes the next due date from now, not from the old anchor: the old
// schedule no longer describes the task.
func (s *TaskService) Update(ctx context.Context, userID, taskID uint, update TaskUpdate, now time.Time) (*model.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, ErrEmptyTitle
		}
		task.Title = strings.TrimSpace(*update.Title)
	}
	if update.Category != nil && strings.TrimSpace(*update.Category) != "" {
		task.Category = strings.TrimSpace(*update.Category)
	}
	if update.Frequency != nil {
		freq, err := schedule.ParseFrequency(update.Frequency)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, err)
		}
		task.Frequency = freq
		nextDue, err := schedule.NextDue(freq, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrequency, err)
		}
		task.NextDueAt = nextDue
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task and with it all future occurrences.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uint) error {
	err := s.taskRepo.Delete(ctx, userID, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// GroupedOccurrences merges every task's generated occurrences within the
// window (today .. weeks ahead) and groups them by date. A task's earliest
// outstanding occurrence is always included, even when it is overdue and
// falls before the window start. Reads take no lock; the view may be
// briefly stale relative to in-flight completions.
func (s *TaskService) GroupedOccurrences(ctx context.Context, userID uint, now time.Time, weeks int) ([]DateGroup, error) {
	if weeks <= 0 {
		weeks = 2
	}
	from := schedule.Day(now)
	to := from.AddDate(0, 0, 7*weeks-1)

	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[time.Time][]OccurrenceView)
	for _, task := range tasks {
		// NextDueAt is itself a generated date, so iterating from it
		// covers the overdue case and the regular window alike.
		it, err := schedule.Iterate(task.Frequency, schedule.Day(task.NextDueAt), to)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", task.ID, err)
		}
		for {
			date, ok := it.Next()
			if !ok {
				break
			}
			grouped[date] = append(grouped[date], OccurrenceView{
				TaskID:   task.ID,
				Title:    task.Title,
				Category: task.Category,
				Streak:   task.Streak,
				Date:     date,
			})
		}
	}

	groups := make([]DateGroup, 0, len(grouped))
	for date, items := range grouped {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].TaskID < items[j].TaskID
		})
		groups = append(groups, DateGroup{Date: date, Items: items})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.Before(groups[j].Date)
	})
	return groups, nil
}
