package models

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Status selects tasks by completion state
type Status string

const (
	StatusAll       Status = ""
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// TaskFilter narrows an owner's task list. Zero values match everything.
type TaskFilter struct {
	Search   string // case-insensitive match on title, description and category
	Status   Status
	Priority Priority
	Category string
	Overdue  bool
	DueSoon  bool
}

// IsZero reports whether the filter matches every task
func (f TaskFilter) IsZero() bool {
	return f == TaskFilter{}
}

// Match applies the filter to a single task
func (f TaskFilter) Match(t Task, now time.Time, dueSoonDays int) bool {
	switch f.Status {
	case StatusPending:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Overdue && !t.IsOverdue(now) {
		return false
	}
	if f.DueSoon && !t.IsDueWithin(now, dueSoonDays) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(t.Category), q) {
			return false
		}
	}
	return true
}

// SortBy names a task ordering
type SortBy string

const (
	SortNone     SortBy = "" // storage order
	SortDueDate  SortBy = "due"
	SortPriority SortBy = "priority"
	SortTitle    SortBy = "title"
	SortCreated  SortBy = "created"
	SortStatus   SortBy = "status"
)

// SortOrders is the cycle the task view steps through
var SortOrders = []SortBy{SortNone, SortDueDate, SortPriority, SortTitle, SortCreated, SortStatus}

// Label is the human name of the ordering
func (s SortBy) Label() string {
	switch s {
	case SortDueDate:
		return "due date"
	case SortPriority:
		return "priority"
	case SortTitle:
		return "title"
	case SortCreated:
		return "newest"
	case SortStatus:
		return "status"
	}
	return "added"
}

// SortTasks returns a sorted copy of tasks. Ties keep their storage order.
func SortTasks(tasks []Task, by SortBy) []Task {
	out := slices.Clone(tasks)
	var cmp func(a, b Task) int
	switch by {
	case SortDueDate:
		cmp = func(a, b Task) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return a.DueDate.Compare(*b.DueDate)
		}
	case SortPriority:
		cmp = func(a, b Task) int { return a.Priority.Rank() - b.Priority.Rank() }
	case SortTitle:
		cmp = func(a, b Task) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case SortCreated:
		cmp = func(a, b Task) int {
			if a.CreatedAt == nil || b.CreatedAt == nil {
				return 0
			}
			return b.CreatedAt.Compare(*a.CreatedAt)
		}
	case SortStatus:
		cmp = func(a, b Task) int { return boolRank(a.Completed) - boolRank(b.Completed) }
	default:
		return out
	}
	slices.SortStableFunc(out, cmp)
	return out
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ComputeStats counts tasks. Pending is always Total - Completed.
func ComputeStats(tasks []Task, now time.Time, dueSoonDays int) Stats {
	s := Stats{
		Total:      len(tasks),
		Categories: make(map[string]int),
		Priorities: make(map[Priority]int, len(Priorities)),
	}
	for _, p := range Priorities {
		s.Priorities[p] = 0
	}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
		if t.IsDueWithin(now, dueSoonDays) {
			s.DueSoon++
		}
		s.Categories[t.Category]++
		s.Priorities[t.Priority]++
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = math.Round(float64(s.Completed)/float64(s.Total)*10000) / 100
	}
	return s
}
