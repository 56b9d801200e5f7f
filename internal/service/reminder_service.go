package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"habitloop/internal/model"
	"habitloop/internal/repository"
	"habitloop/internal/schedule"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	taskRepo *repository.TaskRepository
}

func NewReminderService(taskRepo *repository.TaskRepository) *ReminderService {
	return &ReminderService{taskRepo: taskRepo}
}

// DailySummary renders the user's habits due today and overdue ones, with
// streak counters, as Telegram-flavoured HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}

	today := schedule.Day(now)

	var overdue []model.Task
	var dueToday []model.Task
	var upcoming []model.Task

	for _, task := range tasks {
		due := schedule.Day(task.NextDueAt)
		switch {
		case due.Before(today):
			overdue = append(overdue, task)
		case due.Equal(today):
			dueToday = append(dueToday, task)
		default:
			upcoming = append(upcoming, task)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].NextDueAt.Before(upcoming[j].NextDueAt)
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily habits</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today.Format("Mon, 02 Jan 2006")))

	builder.WriteString("🔥 <b>Due today</b>\n")
	if len(dueToday) == 0 {
		builder.WriteString("— nothing due today\n")
	} else {
		for _, task := range dueToday {
			builder.WriteString(formatDueTask(task))
		}
	}

	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Overdue</b>\n")
		for _, task := range overdue {
			builder.WriteString(formatOverdueTask(task, today))
		}
	}

	if len(upcoming) > 0 {
		builder.WriteString("\n📆 <b>Coming up</b>\n")
		limit := len(upcoming)
		if limit > 5 {
			limit = 5
		}
		for _, task := range upcoming[:limit] {
			builder.WriteString(formatUpcomingTask(task))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// StreakSummary lists every habit with its current streak, longest first.
func (s *ReminderService) StreakSummary(ctx context.Context, user model.User) (string, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "No habits yet.", nil
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Streak != tasks[j].Streak {
			return tasks[i].Streak > tasks[j].Streak
		}
		return tasks[i].ID < tasks[j].ID
	})

	var builder strings.Builder
	builder.WriteString("🏆 <b>Streaks</b>\n")
	for _, task := range tasks {
		builder.WriteString(fmt.Sprintf("• %s — <b>%d</b> (%s)\n",
			html.EscapeString(task.Title), task.Streak, task.Frequency.String()))
	}
	return strings.TrimSpace(builder.String()), nil
}

func formatDueTask(task model.Task) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏳ %s", html.EscapeString(strings.TrimSpace(task.Title))))
	if task.Streak > 0 {
		sb.WriteString(fmt.Sprintf(" · 🔥 %d", task.Streak))
	}
	sb.WriteString(fmt.Sprintf("\n   ♻️ %s\n", task.Frequency.String()))
	return sb.String()
}

func formatOverdueTask(task model.Task, today time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠️ %s", html.EscapeString(strings.TrimSpace(task.Title))))
	daysLate := int(today.Sub(schedule.Day(task.NextDueAt)).Hours() / 24)
	sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>%d day(s) late</b>\n",
		task.NextDueAt.Format("2006-01-02"), daysLate))
	return sb.String()
}

func formatUpcomingTask(task model.Task) string {
	return fmt.Sprintf("• %s — %s\n",
		html.EscapeString(strings.TrimSpace(task.Title)),
		task.NextDueAt.Format("Mon, 02 Jan"))
}
