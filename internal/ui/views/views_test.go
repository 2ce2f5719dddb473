package views

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/models"
)

var viewNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(db.Options{
		Dir:         t.TempDir(),
		DueSoonDays: 3,
		Now:         func() time.Time { return viewNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

// run executes cmd and returns its message
func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

// settle feeds a store command's result back into the view, then the reload
// it triggers
func settle(t *testing.T, v *TaskListView, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 3; i++ {
		_, cmd = v.Update(run(t, cmd))
	}
}

func TestLogin_Success(t *testing.T) {
	database := newTestDB(t)
	_, err := database.Users.Register("alice", "secret")
	require.NoError(t, err)

	v := NewLoginView(database.Users, "alice")
	assert.Equal(t, 1, v.focusIdx, "prefilled username focuses password")

	v.password.SetValue("secret")
	v.focusIdx = v.submitIdx()
	_, cmd := v.Update(keyEnter)
	_, cmd = v.Update(run(t, cmd))

	msg := run(t, cmd)
	loggedIn, ok := msg.(LoggedIn)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "alice", loggedIn.User.Username)
}

func TestLogin_BadPassword(t *testing.T) {
	database := newTestDB(t)
	_, err := database.Users.Register("alice", "secret")
	require.NoError(t, err)

	v := NewLoginView(database.Users, "")
	v.username.SetValue("alice")
	v.password.SetValue("nope")
	cmd := v.submit()
	_, next := v.Update(run(t, cmd))

	assert.Nil(t, next)
	assert.Equal(t, "Invalid username or password", v.err)
	assert.Contains(t, v.View(), "Invalid username or password")
}

func TestRegister_ThenLogin(t *testing.T) {
	database := newTestDB(t)
	v := NewLoginView(database.Users, "")

	_, _ = v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, ModeRegister, v.Mode())

	v.username.SetValue("bob")
	v.password.SetValue("pw1")
	v.confirm.SetValue("pw2")
	assert.Nil(t, v.submit())
	assert.Equal(t, "Passwords do not match", v.err)

	v.confirm.SetValue("pw1")
	_, next := v.Update(run(t, v.submit()))
	assert.Nil(t, next)
	assert.Equal(t, ModeLogin, v.Mode())
	assert.Contains(t, v.status, "bob")

	ok, err := database.Users.Exists("bob")
	require.NoError(t, err)
	assert.True(t, ok)

	// same name again
	_, _ = v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	v.password.SetValue("x")
	v.confirm.SetValue("x")
	_, _ = v.Update(run(t, v.submit()))
	assert.Equal(t, "That username is already taken", v.err)
}

func newTaskView(t *testing.T) (*TaskListView, *db.DB) {
	t.Helper()
	database := newTestDB(t)
	_, err := database.Users.Register("bob", "pw")
	require.NoError(t, err)

	v := NewTaskListView(database.Tasks, "bob")
	v.now = func() time.Time { return viewNow }
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	settle(t, v, v.Init())
	return v, database
}

func addTask(t *testing.T, v *TaskListView, title string, p models.Priority) {
	t.Helper()
	v.startNewTask()
	v.editTitle.SetValue(title)
	v.editPriority = p
	settle(t, v, v.saveTask())
	require.False(t, v.creating, v.formErr)
}

func TestTaskList_AddToggleStats(t *testing.T) {
	v, _ := newTaskView(t)
	assert.Contains(t, v.View(), "No tasks")

	addTask(t, v, "Ship release", models.PriorityHigh)
	addTask(t, v, "Fix bug", models.PriorityHigh)
	addTask(t, v, "Water plants", models.PriorityLow)
	require.Len(t, v.tasks, 3)
	assert.Equal(t, "Added task #3", v.status)

	_, cmd := v.Update(keySpace)
	settle(t, v, cmd)

	assert.Equal(t, 3, v.stats.Total)
	assert.Equal(t, 1, v.stats.Completed)
	assert.Equal(t, 2, v.stats.Pending)
	assert.True(t, v.tasks[0].Completed)
	assert.Contains(t, v.View(), "[x]")

	v.Update(keyRunes("i"))
	assert.Contains(t, v.View(), "Completion rate: 33.33%")
	v.Update(keyRunes("x"))
	assert.False(t, v.showStats)
}

func TestTaskList_FormValidation(t *testing.T) {
	v, _ := newTaskView(t)

	v.startNewTask()
	assert.Nil(t, v.saveTask())
	assert.Equal(t, "Title is required", v.formErr)

	v.editTitle.SetValue("Report")
	v.editDue.SetValue("soon")
	assert.Nil(t, v.saveTask())
	assert.Equal(t, fieldDue, v.editFocusIdx)

	v.editDue.SetValue("+2")
	v.editCategory.SetValue("Work")
	settle(t, v, v.saveTask())
	require.Len(t, v.tasks, 1)
	assert.Equal(t, "Work", v.tasks[0].Category)
	assert.Equal(t, models.PriorityMedium, v.tasks[0].Priority)
	require.NotNil(t, v.tasks[0].DueDate)
	assert.Equal(t, "2025-03-16", v.tasks[0].DueDate.Format(models.DateLayout))
	assert.Contains(t, v.View(), "due in 2d")
}

func TestTaskList_Delete(t *testing.T) {
	v, database := newTaskView(t)
	addTask(t, v, "one", models.PriorityLow)
	addTask(t, v, "two", models.PriorityLow)

	v.Update(keyRunes("d"))
	require.True(t, v.confirmingDelete)
	assert.Contains(t, v.View(), "Delete Task?")

	_, cmd := v.Update(keyRunes("y"))
	settle(t, v, cmd)

	tasks, err := database.Tasks.ListTasks("bob")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "two", tasks[0].Title)
	assert.Len(t, v.tasks, 1)
}

func TestTaskList_FilterAndSort(t *testing.T) {
	v, _ := newTaskView(t)
	addTask(t, v, "beta", models.PriorityLow)
	addTask(t, v, "alpha", models.PriorityHigh)

	_, cmd := v.Update(keySpace) // complete beta
	settle(t, v, cmd)

	_, cmd = v.Update(keyRunes("f")) // pending
	settle(t, v, cmd)
	require.Len(t, v.tasks, 1)
	assert.Equal(t, "alpha", v.tasks[0].Title)

	_, cmd = v.Update(keyRunes("f")) // completed
	settle(t, v, cmd)
	require.Len(t, v.tasks, 1)
	assert.Equal(t, "beta", v.tasks[0].Title)

	v.statusIdx = 0
	for v.currentSort() != models.SortTitle {
		_, cmd = v.Update(keyRunes("s"))
		settle(t, v, cmd)
	}
	assert.Equal(t, []string{"alpha", "beta"}, []string{v.tasks[0].Title, v.tasks[1].Title})

	v.searchInput.SetValue("BET")
	settle(t, v, v.reload())
	require.Len(t, v.tasks, 1)
	assert.Equal(t, "beta", v.tasks[0].Title)
}

func TestTaskList_ClearCompletedAndExport(t *testing.T) {
	v, database := newTaskView(t)
	addTask(t, v, "one", models.PriorityLow)
	addTask(t, v, "two", models.PriorityLow)
	_, cmd := v.Update(keySpace)
	settle(t, v, cmd)

	v.Update(keyRunes("C"))
	require.True(t, v.confirmingClear)
	_, cmd = v.Update(keyRunes("y"))
	settle(t, v, cmd)
	assert.Equal(t, "Cleared 1 completed task(s)", v.status)
	assert.Equal(t, 1, v.stats.Total)

	v.Update(keyRunes("e"))
	require.True(t, v.choosingExport)
	_, cmd = v.Update(keyRunes("t"))
	settle(t, v, cmd)
	assert.True(t, strings.HasPrefix(v.status, "Exported to "))
	assert.FileExists(t, strings.TrimPrefix(v.status, "Exported to "))
	assert.Contains(t, v.status, database.Dir)
}

func TestTaskList_Logout(t *testing.T) {
	v, _ := newTaskView(t)
	_, cmd := v.Update(keyEsc)
	assert.IsType(t, LoggedOut{}, run(t, cmd))
}

func TestDueLabel(t *testing.T) {
	at := func(days int) *time.Time {
		d := time.Date(2025, 3, 14+days, 23, 59, 59, 0, time.UTC)
		return &d
	}
	assert.Equal(t, "", dueLabel(models.Task{}, viewNow))
	assert.Equal(t, "due today", dueLabel(models.Task{DueDate: at(0)}, viewNow))
	assert.Equal(t, "due tomorrow", dueLabel(models.Task{DueDate: at(1)}, viewNow))
	assert.Equal(t, "due in 5d", dueLabel(models.Task{DueDate: at(5)}, viewNow))
	assert.Equal(t, "overdue 2d", dueLabel(models.Task{DueDate: at(-2)}, viewNow))
	assert.Equal(t, "due 2025-03-12", dueLabel(models.Task{DueDate: at(-2), Completed: true}, viewNow))
}

func TestNextPriority(t *testing.T) {
	p := models.Priority("")
	var seen []models.Priority
	for range 4 {
		p = nextPriority(p)
		seen = append(seen, p)
	}
	assert.Equal(t, []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow, ""}, seen)
	assert.Equal(t, models.PriorityHigh, cyclePriority(models.PriorityLow, -1))
}

func TestTaskList_CategoryFilter(t *testing.T) {
	v, _ := newTaskView(t)
	for _, c := range []string{"Work", "Health", "Work"} {
		v.startNewTask()
		v.editTitle.SetValue("task in " + c)
		v.editCategory.SetValue(c)
		settle(t, v, v.saveTask())
	}

	_, cmd := v.Update(keyRunes("c"))
	settle(t, v, cmd)
	assert.Equal(t, "Health", v.category)
	assert.Len(t, v.tasks, 1)

	_, cmd = v.Update(keyRunes("c"))
	settle(t, v, cmd)
	assert.Equal(t, "Work", v.category)
	assert.Len(t, v.tasks, 2)

	_, cmd = v.Update(keyRunes("c"))
	settle(t, v, cmd)
	assert.Empty(t, v.category)
	assert.Len(t, v.tasks, 3)
}

func TestTaskList_DeleteAccount(t *testing.T) {
	v, database := newTaskView(t)
	addTask(t, v, "one", models.PriorityLow)

	v.Update(keyRunes("X"))
	assert.False(t, v.deletingAccount, "hidden without a deleter")

	v.SetAccountDeleter(database.DeleteAccount)
	v.Update(keyRunes("X"))
	require.True(t, v.deletingAccount)

	v.accountPassword.SetValue("wrong")
	_, cmd := v.Update(keyEnter)
	_, next := v.Update(run(t, cmd))
	assert.Nil(t, next)
	assert.Equal(t, "Wrong password", v.formErr)

	v.accountPassword.SetValue("pw")
	_, cmd = v.Update(keyEnter)
	_, next = v.Update(run(t, cmd))
	assert.IsType(t, LoggedOut{}, run(t, next))

	ok, err := database.Users.Exists("bob")
	require.NoError(t, err)
	assert.False(t, ok)
	tasks, err := database.Tasks.ListTasks("bob")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
