package db

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tgienger/todo/internal/models"
)

// OwnerChecker confirms that a task owner is a registered user
type OwnerChecker interface {
	Exists(username string) (bool, error)
}

// TaskStore keeps every user's tasks in tasks.json. Each operation loads the
// whole file, changes it in memory and writes it back.
type TaskStore struct {
	mu          sync.Mutex
	file        jsonFile
	owners      OwnerChecker // nil skips the owner check
	backups     *Backups     // nil disables backups
	exportDir   string
	dueSoonDays int
	now         func() time.Time
	logger      *log.Logger
}

func (s *TaskStore) load() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.file.read(&tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskStore) save(tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	if s.backups != nil {
		if _, err := s.backups.Snapshot(s.file.path); err != nil {
			// a missed backup must not block the write itself
			s.logger.Warn("backup failed", "path", s.file.path, "err", err)
		}
	}
	if err := s.file.write(tasks); err != nil {
		s.logger.Error("persist tasks", "path", s.file.path, "err", err)
		return err
	}
	return nil
}

func indexOfTask(tasks []models.Task, owner string, id int64) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id && t.Owner == owner })
}

func nextID(tasks []models.Task) int64 {
	var max int64
	for _, t := range tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func notFound(owner string, id int64) error {
	return fmt.Errorf("%w: task %d for %s", models.ErrNotFound, id, owner)
}

// AddTask creates a pending task for owner
func (s *TaskStore) AddTask(owner, title string, priority models.Priority, category string) (*models.Task, error) {
	return s.CreateTask(models.TaskInput{
		Owner:    owner,
		Title:    title,
		Priority: priority,
		Category: category,
	})
}

// CreateTask creates a pending task with an id one above the largest in the file
func (s *TaskStore) CreateTask(in models.TaskInput) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return nil, err
	}

	task, err := models.NewTask(nextID(tasks), in, s.now())
	if err != nil {
		return nil, err
	}

	if s.owners != nil {
		ok, err := s.owners.Exists(task.Owner)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown owner %q", models.ErrInvalidInput, task.Owner)
		}
	}

	tasks = append(tasks, *task)
	if err := s.save(tasks); err != nil {
		return nil, err
	}

	s.logger.Debug("task added", "owner", task.Owner, "task_id", task.ID)
	return task, nil
}

// GetTask retrieves one of owner's tasks by ID
func (s *TaskStore) GetTask(owner string, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return nil, err
	}
	i := indexOfTask(tasks, owner, id)
	if i < 0 {
		return nil, notFound(owner, id)
	}
	t := tasks[i]
	return &t, nil
}

// ListTasks returns owner's tasks in the order they were added
func (s *TaskStore) ListTasks(owner string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listLocked(owner)
}

func (s *TaskStore) listLocked(owner string) ([]models.Task, error) {
	tasks, err := s.load()
	if err != nil {
		return nil, err
	}
	owned := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Owner == owner {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

// ListTasksFiltered returns owner's tasks matching filter, ordered by sortBy
func (s *TaskStore) ListTasksFiltered(owner string, filter models.TaskFilter, sortBy models.SortBy) ([]models.Task, error) {
	tasks, err := s.ListTasks(owner)
	if err != nil {
		return nil, err
	}
	if !filter.IsZero() {
		now := s.now()
		tasks = slices.DeleteFunc(tasks, func(t models.Task) bool {
			return !filter.Match(t, now, s.dueSoonDays)
		})
	}
	return models.SortTasks(tasks, sortBy), nil
}

// SearchTasks matches query against title, description and category
func (s *TaskStore) SearchTasks(owner, query string) ([]models.Task, error) {
	return s.ListTasksFiltered(owner, models.TaskFilter{Search: query}, models.SortNone)
}

// MarkComplete sets completed on one of owner's tasks
func (s *TaskStore) MarkComplete(owner string, id int64) error {
	return s.setCompleted(owner, id, true)
}

// MarkPending clears completed on one of owner's tasks
func (s *TaskStore) MarkPending(owner string, id int64) error {
	return s.setCompleted(owner, id, false)
}

func (s *TaskStore) setCompleted(owner string, id int64, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	i := indexOfTask(tasks, owner, id)
	if i < 0 {
		return notFound(owner, id)
	}
	if tasks[i].Completed == completed {
		return nil
	}

	now := s.now()
	tasks[i].Completed = completed
	tasks[i].UpdatedAt = &now
	if err := s.save(tasks); err != nil {
		return err
	}

	s.logger.Debug("task updated", "owner", owner, "task_id", id, "completed", completed)
	return nil
}

// DeleteTask deletes one of owner's tasks
func (s *TaskStore) DeleteTask(owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	i := indexOfTask(tasks, owner, id)
	if i < 0 {
		return notFound(owner, id)
	}
	tasks = slices.Delete(tasks, i, i+1)
	if err := s.save(tasks); err != nil {
		return err
	}

	s.logger.Debug("task deleted", "owner", owner, "task_id", id)
	return nil
}

// ClearCompleted deletes all of owner's completed tasks and returns how many went
func (s *TaskStore) ClearCompleted(owner string) (int, error) {
	return s.deleteWhere(func(t models.Task) bool { return t.Owner == owner && t.Completed })
}

// DeleteOwnerTasks deletes every task owner has
func (s *TaskStore) DeleteOwnerTasks(owner string) (int, error) {
	return s.deleteWhere(func(t models.Task) bool { return t.Owner == owner })
}

func (s *TaskStore) deleteWhere(match func(models.Task) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return 0, err
	}
	before := len(tasks)
	tasks = slices.DeleteFunc(tasks, match)
	removed := before - len(tasks)
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(tasks); err != nil {
		return 0, err
	}
	s.logger.Debug("tasks removed", "count", removed)
	return removed, nil
}

// Statistics counts owner's tasks. It never writes.
func (s *TaskStore) Statistics(owner string) (models.Stats, error) {
	tasks, err := s.ListTasks(owner)
	if err != nil {
		return models.Stats{}, err
	}
	return models.ComputeStats(tasks, s.now(), s.dueSoonDays), nil
}

// DueSoonDays is the window used for due-soon filters and counts
func (s *TaskStore) DueSoonDays() int {
	return s.dueSoonDays
}
