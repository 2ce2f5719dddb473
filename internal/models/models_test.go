package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := now.AddDate(0, 0, offset)
	return &d
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("  alice ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "secret", u.Password)

	_, err = NewUser("", "secret")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "username is required")

	_, err = NewUser("bob", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "password is required")
}

func TestNewTask(t *testing.T) {
	task, err := NewTask(7, TaskInput{Owner: "bob", Title: " Write report ", Priority: PriorityHigh}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, DefaultCategory, task.Category)
	assert.False(t, task.Completed)
	require.NotNil(t, task.CreatedAt)
	assert.True(t, task.CreatedAt.Equal(now))
}

func TestNewTask_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   TaskInput
		want string
	}{
		{"empty title", TaskInput{Owner: "bob", Title: "   ", Priority: PriorityLow}, "title is required"},
		{"bad priority", TaskInput{Owner: "bob", Title: "x", Priority: "Urgent"}, "priority must be one of Low, Medium, High"},
		{"missing priority", TaskInput{Owner: "bob", Title: "x"}, "priority is required"},
		{"missing owner", TaskInput{Title: "x", Priority: PriorityLow}, "owner is required"},
		{"due date too far", TaskInput{Owner: "bob", Title: "x", Priority: PriorityLow, DueDate: day(3_000_000)}, "due date year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(1, tt.in, now)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority("high")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	_, ok = ParsePriority("critical")
	assert.False(t, ok)
}

func TestTaskDueDates(t *testing.T) {
	overdue := Task{DueDate: day(-2)}
	assert.True(t, overdue.IsOverdue(now))

	done := Task{DueDate: day(-2), Completed: true}
	assert.False(t, done.IsOverdue(now))
	assert.False(t, done.IsDueWithin(now, 3))

	soon := Task{DueDate: day(2)}
	d, ok := soon.DaysUntilDue(now)
	assert.True(t, ok)
	assert.Equal(t, 2, d)
	assert.True(t, soon.IsDueWithin(now, 3))

	later := Task{DueDate: day(10)}
	assert.False(t, later.IsDueWithin(now, 3))

	_, ok = Task{}.DaysUntilDue(now)
	assert.False(t, ok)
}

func TestTaskFilter(t *testing.T) {
	tasks := []Task{
		{ID: 1, Title: "Buy milk", Category: "Shopping", Priority: PriorityLow},
		{ID: 2, Title: "Quarterly report", Category: "Work", Priority: PriorityHigh, Completed: true},
		{ID: 3, Title: "Gym", Description: "leg day", Category: "Health", Priority: PriorityMedium, DueDate: day(-1)},
		{ID: 4, Title: "Dentist", Category: "Health", Priority: PriorityHigh, DueDate: day(1)},
	}

	ids := func(f TaskFilter) []int64 {
		var out []int64
		for _, task := range tasks {
			if f.Match(task, now, 3) {
				out = append(out, task.ID)
			}
		}
		return out
	}

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(TaskFilter{}))
	assert.Equal(t, []int64{1, 3, 4}, ids(TaskFilter{Status: StatusPending}))
	assert.Equal(t, []int64{2}, ids(TaskFilter{Status: StatusCompleted}))
	assert.Equal(t, []int64{2, 4}, ids(TaskFilter{Priority: PriorityHigh}))
	assert.Equal(t, []int64{3, 4}, ids(TaskFilter{Category: "Health"}))
	assert.Equal(t, []int64{3}, ids(TaskFilter{Overdue: true}))
	assert.Equal(t, []int64{4}, ids(TaskFilter{DueSoon: true}))
	assert.Equal(t, []int64{3}, ids(TaskFilter{Search: "LEG"}))
	assert.Equal(t, []int64{1}, ids(TaskFilter{Search: "shop"}))
	assert.True(t, TaskFilter{}.IsZero())
}

func TestSortTasks(t *testing.T) {
	tasks := []Task{
		{ID: 1, Title: "b", Priority: PriorityLow, DueDate: day(5), CreatedAt: day(-3)},
		{ID: 2, Title: "A", Priority: PriorityHigh, Completed: true, CreatedAt: day(-1)},
		{ID: 3, Title: "c", Priority: PriorityMedium, DueDate: day(1), CreatedAt: day(-2)},
	}
	order := func(ts []Task) []int64 {
		out := make([]int64, len(ts))
		for i, task := range ts {
			out[i] = task.ID
		}
		return out
	}

	assert.Equal(t, []int64{1, 2, 3}, order(SortTasks(tasks, SortNone)))
	assert.Equal(t, []int64{3, 1, 2}, order(SortTasks(tasks, SortDueDate)))
	assert.Equal(t, []int64{2, 3, 1}, order(SortTasks(tasks, SortPriority)))
	assert.Equal(t, []int64{2, 1, 3}, order(SortTasks(tasks, SortTitle)))
	assert.Equal(t, []int64{2, 3, 1}, order(SortTasks(tasks, SortCreated)))
	assert.Equal(t, []int64{1, 3, 2}, order(SortTasks(tasks, SortStatus)))
	// input untouched
	assert.Equal(t, []int64{1, 2, 3}, order(tasks))
}

func TestComputeStats(t *testing.T) {
	tasks := []Task{
		{Priority: PriorityHigh, Category: "Work", Completed: true},
		{Priority: PriorityHigh, Category: "Work", DueDate: day(-1)},
		{Priority: PriorityLow, Category: "Home", DueDate: day(2)},
	}
	s := ComputeStats(tasks, now, 3)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.DueSoon)
	assert.Equal(t, 33.33, s.CompletionRate)
	assert.Equal(t, map[string]int{"Work": 2, "Home": 1}, s.Categories)
	assert.Equal(t, map[Priority]int{PriorityHigh: 2, PriorityMedium: 0, PriorityLow: 1}, s.Priorities)

	empty := ComputeStats(nil, now, 3)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.CompletionRate)
	assert.Len(t, empty.Priorities, 3)
}
