package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitloop/internal/repository"
	"habitloop/internal/schedule"
)

func newTaskService(t *testing.T) *TaskService {
	t.Helper()
	db := newTestDB(t)
	return NewTaskService(repository.NewTaskRepository(db), repository.NewUserRepository(db))
}

func TestCreate_ValidatesInput(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, TaskInput{Title: "  ", Frequency: []string{"mon"}}, monday())
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = svc.Create(ctx, 1, TaskInput{Title: "Read"}, monday())
	assert.ErrorIs(t, err, ErrInvalidFrequency)

	_, err = svc.Create(ctx, 1, TaskInput{Title: "Read", Frequency: []string{"mon", "noday"}}, monday())
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestCreate_FirstDueDateFromNow(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskInput{Title: "Read", Frequency: []string{"mon", "wed", "fri"}}, monday())
	require.NoError(t, err)

	assert.Equal(t, schedule.Day(monday()), schedule.Day(task.NextDueAt))
	assert.Equal(t, 0, task.Streak)
	assert.Equal(t, "General", task.Category)
}

func TestCreate_FrequencySurvivesReload(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskInput{Title: "Gym", Category: "Health", Frequency: []string{"sat", "tue"}}, monday())
	require.NoError(t, err)

	reloaded, err := svc.Get(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "tue,sat", reloaded.Frequency.String())
	assert.Equal(t, "Health", reloaded.Category)
}

func TestCreate_MaterializesOwnerForBotLink(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewTaskService(repository.NewTaskRepository(db), userRepo)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, TaskInput{Title: "Run", Frequency: []string{"mon"}}, monday())
	require.NoError(t, err)

	// An owner seen only through the identity header must be linkable
	// right after their first task.
	_, err = userRepo.LinkTelegram(ctx, 1, 4242, "Ann")
	require.NoError(t, err)

	linked, err := userRepo.FindByTelegramID(ctx, 4242)
	require.NoError(t, err)
	assert.Equal(t, uint(1), linked.ID)

	// A second task for the same owner reuses the row.
	_, err = svc.Create(ctx, 1, TaskInput{Title: "Read", Frequency: []string{"tue"}}, monday())
	require.NoError(t, err)

	users, err := userRepo.ListLinked(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(4242), users[0].TelegramID)
}

func TestGet_ScopedToOwner(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskInput{Title: "Read", Frequency: []string{"mon"}}, monday())
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdate_FrequencyRecomputesFromNow(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskInput{Title: "Stretch", Frequency: []string{"mon"}}, monday())
	require.NoError(t, err)
	require.Equal(t, schedule.Day(monday()), schedule.Day(task.NextDueAt))

	// Thursday: with {mon,tue,wed} the next due date counts from now,
	// not from the original Monday anchor.
	thursday := onDay(monday(), 3)
	updated, err := svc.Update(ctx, 1, task.ID, TaskUpdate{Frequency: []string{"mon", "tue", "wed"}}, thursday)
	require.NoError(t, err)
	assert.Equal(t, schedule.Day(onDay(monday(), 7)), schedule.Day(updated.NextDueAt))
}

func TestUpdate_TitleOnlyKeepsSchedule(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskInput{Title: "Stretch", Frequency: []string{"mon"}}, monday())
	require.NoError(t, err)

	title := "Full-body stretch"
	updated, err := svc.Update(ctx, 1, task.ID, TaskUpdate{Title: &title}, onDay(monday(), 3))
	require.NoError(t, err)
	assert.Equal(t, "Full-body stretch", updated.Title)
	assert.Equal(t, schedule.Day(monday()), schedule.Day(updated.NextDueAt))
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTaskService(t)
	title := "x"
	_, err := svc.Update(context.Background(), 1, 404, TaskUpdate{Title: &title}, monday())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDelete_RemovesFromGroupedView(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	keep, err := svc.Create(ctx, 1, TaskInput{Title: "Keep", Frequency: []string{"mon"}}, monday())
	require.NoError(t, err)
	drop, err := svc.Create(ctx, 1, TaskInput{Title: "Drop", Frequency: []string{"mon", "tue", "wed", "thu", "fri"}}, monday())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, drop.ID))

	groups, err := svc.GroupedOccurrences(ctx, 1, monday(), 2)
	require.NoError(t, err)
	for _, group := range groups {
		for _, occ := range group.Items {
			assert.NotEqual(t, drop.ID, occ.TaskID, "deleted task must vanish from the view")
			assert.Equal(t, keep.ID, occ.TaskID)
		}
	}
	assert.NotEmpty(t, groups)

	err = svc.Delete(ctx, 1, drop.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGroupedOccurrences_WindowAndOrdering(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, TaskInput{Title: "Run", Frequency: []string{"mon", "fri"}}, monday())
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, TaskInput{Title: "Read", Frequency: []string{"mon"}}, monday())
	require.NoError(t, err)

	groups, err := svc.GroupedOccurrences(ctx, 1, monday(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 2) // Monday and Friday within one week

	assert.Equal(t, schedule.Day(monday()), groups[0].Date)
	require.Len(t, groups[0].Items, 2)
	assert.True(t, groups[0].Items[0].TaskID < groups[0].Items[1].TaskID)

	assert.Equal(t, schedule.Day(onDay(monday(), 4)), groups[1].Date)
	require.Len(t, groups[1].Items, 1)
	assert.Equal(t, "Run", groups[1].Items[0].Title)

	for i := 1; i < len(groups); i++ {
		assert.True(t, groups[i-1].Date.Before(groups[i].Date))
	}
}

func TestGroupedOccurrences_IncludesOverdueEarliest(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, 1, TaskInput{Title: "Run", Frequency: []string{"mon"}}, monday())
	require.NoError(t, err)

	// A week later the Monday occurrence is overdue but still the
	// earliest outstanding one, so the view keeps showing it.
	later := onDay(monday(), 9)
	groups, err := svc.GroupedOccurrences(ctx, 1, later, 1)
	require.NoError(t, err)
	require.NotEmpty(t, groups)
	assert.Equal(t, schedule.Day(task.NextDueAt), groups[0].Date)
	assert.True(t, groups[0].Date.Before(schedule.Day(later)))
}

func TestGroupedOccurrences_EmptyForUnknownUser(t *testing.T) {
	svc := newTaskService(t)
	groups, err := svc.GroupedOccurrences(context.Background(), 42, monday(), 2)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGroupedOccurrences_DefaultWindow(t *testing.T) {
	svc := newTaskService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, TaskInput{Title: "Run", Frequency: []string{"mon"}}, monday())
	require.NoError(t, err)

	// weeks <= 0 falls back to the two-week default.
	groups, err := svc.GroupedOccurrences(ctx, 1, monday(), 0)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}
