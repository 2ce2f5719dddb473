package models

import (
	"math"
	"strings"
	"time"
)

// Priority is the urgency level of a task
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority from most to least urgent
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority matches s against the known priorities, ignoring case
func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// Rank orders priorities with High first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// DefaultCategory is used when a task is created without one
const DefaultCategory = "General"

// Categories offered by the task form. Any other label is accepted as well.
var Categories = []string{"Work", "Personal", "Study", "Health", "Finance", "Shopping", "General", "Other"}

// User represents a registered account
type User struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
	// Hashed marks a password stored as a bcrypt hash
	Hashed bool `json:"hashed,omitempty"`
}

// Task represents a single to-do item
type Task struct {
	ID          int64      `json:"id"`
	Owner       string     `json:"owner" validate:"required"`
	Title       string     `json:"title" validate:"required,max=200"`
	Priority    Priority   `json:"priority" validate:"required,oneof=Low Medium High"`
	Category    string     `json:"category" validate:"max=50"`
	Completed   bool       `json:"completed"`
	Description string     `json:"description,omitempty" validate:"max=1000"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// IsOverdue reports whether an open task is past its due date
func (t Task) IsOverdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now)
}

// DaysUntilDue returns whole calendar days between now and the due date.
// ok is false when the task has no due date.
func (t Task) DaysUntilDue(now time.Time) (days int, ok bool) {
	if t.DueDate == nil {
		return 0, false
	}
	due := truncateDay(*t.DueDate)
	today := truncateDay(now.In(t.DueDate.Location()))
	return int(math.Round(due.Sub(today).Hours() / 24)), true
}

// IsDueWithin reports whether an open task falls due between today and today+days
func (t Task) IsDueWithin(now time.Time, days int) bool {
	if t.Completed {
		return false
	}
	d, ok := t.DaysUntilDue(now)
	return ok && d >= 0 && d <= days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TaskInput carries the fields a caller supplies when creating a task
type TaskInput struct {
	Owner       string
	Title       string
	Priority    Priority
	Category    string
	Description string
	DueDate     *time.Time
}

// Stats summarises one owner's tasks
type Stats struct {
	Total          int
	Completed      int
	Pending        int
	Overdue        int
	DueSoon        int
	CompletionRate float64
	Categories     map[string]int
	Priorities     map[Priority]int
}
