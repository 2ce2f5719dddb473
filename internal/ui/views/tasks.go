package views

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/ui/keys"
	"github.com/tgienger/todo/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusTaskList FocusArea = iota
	FocusSearchInput
)

// Form fields, in tab order
const (
	fieldTitle = iota
	fieldPriority
	fieldCategory
	fieldDue
	fieldDesc
	fieldSave
	fieldCount
)

type statusView struct {
	label  string
	filter models.TaskFilter
}

// statusViews is the cycle stepped through with the filter key
var statusViews = []statusView{
	{"All", models.TaskFilter{}},
	{"Pending", models.TaskFilter{Status: models.StatusPending}},
	{"Completed", models.TaskFilter{Status: models.StatusCompleted}},
	{"Overdue", models.TaskFilter{Overdue: true}},
	{"Due soon", models.TaskFilter{DueSoon: true}},
}

// LoggedOut is sent when the user leaves the task list
type LoggedOut struct{}

// AccountDeleter removes the owner's account and tasks after checking the password
type AccountDeleter func(username, password string) error

type tasksLoadedMsg struct {
	tasks []models.Task
	stats models.Stats
}

type taskSavedMsg struct {
	task *models.Task
	err  error
}

type actionDoneMsg struct {
	status string
	err    error
}

// TaskListView shows the logged-in user's tasks
type TaskListView struct {
	store  *db.TaskStore
	owner  string
	tasks  []models.Task
	stats  models.Stats
	styles *styles.Styles
	keys   keys.KeyMap
	now    func() time.Time

	width  int
	height int

	// UI state
	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model
	statusIdx   int
	priority    models.Priority // empty = any
	category    string          // empty = any
	sortIdx     int
	loaded      bool

	// Task creation
	creating     bool
	editTitle    textinput.Model
	editPriority models.Priority
	editCategory textinput.Model
	editDue      textinput.Model
	editDesc     textarea.Model
	editFocusIdx int
	formErr      string

	// Confirmations and popups
	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string
	confirmingClear  bool
	choosingExport   bool
	showStats        bool
	showHelpPopup    bool

	// Account deletion
	deleteAccount   AccountDeleter // nil hides the option
	deletingAccount bool
	accountPassword textinput.Model

	status string
	err    string
}

// NewTaskListView creates a task list for owner
func NewTaskListView(store *db.TaskStore, owner string) *TaskListView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editCategory := textinput.New()
	editCategory.Placeholder = models.DefaultCategory
	editCategory.CharLimit = 50
	editCategory.ShowSuggestions = true

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD, today, tomorrow or +N"
	editDue.CharLimit = 10

	editDesc := textarea.New()
	editDesc.Placeholder = "Description (optional)"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false
	// enter moves to the next field
	editDesc.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")

	accountPassword := textinput.New()
	accountPassword.Placeholder = "Password"
	accountPassword.CharLimit = 72
	accountPassword.EchoMode = textinput.EchoPassword
	accountPassword.EchoCharacter = '•'

	return &TaskListView{
		store:           store,
		owner:           owner,
		styles:          s,
		keys:            keys.DefaultKeyMap(),
		now:             time.Now,
		focus:           FocusTaskList,
		searchInput:     search,
		editTitle:       editTitle,
		editCategory:    editCategory,
		editDue:         editDue,
		editDesc:        editDesc,
		accountPassword: accountPassword,
	}
}

// SetAccountDeleter enables deleting the account from the task list
func (v *TaskListView) SetAccountDeleter(fn AccountDeleter) {
	v.deleteAccount = fn
}

// Owner is the user whose tasks are shown
func (v *TaskListView) Owner() string {
	return v.owner
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.reload()
}

func (v *TaskListView) currentFilter() models.TaskFilter {
	f := statusViews[v.statusIdx].filter
	f.Search = strings.TrimSpace(v.searchInput.Value())
	f.Priority = v.priority
	f.Category = v.category
	return f
}

func (v *TaskListView) currentSort() models.SortBy {
	return models.SortOrders[v.sortIdx]
}

// reload fetches the filtered list and the owner's statistics
func (v *TaskListView) reload() tea.Cmd {
	store, owner := v.store, v.owner
	filter, sortBy := v.currentFilter(), v.currentSort()
	return func() tea.Msg {
		tasks, err := store.ListTasksFiltered(owner, filter, sortBy)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		stats, err := store.Statistics(owner)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return tasksLoadedMsg{tasks: tasks, stats: stats}
	}
}

func (v *TaskListView) selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.editDesc.SetWidth(clamp(contentWidth-10, 20, 50))
		v.ensureVisible()
		return v, nil

	case tasksLoadedMsg:
		v.tasks = msg.tasks
		v.stats = msg.stats
		v.loaded = true
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		v.ensureVisible()
		return v, nil

	case taskSavedMsg:
		if msg.err != nil {
			v.formErr = errorText(msg.err)
			return v, nil
		}
		v.creating = false
		v.formErr = ""
		v.setStatus(fmt.Sprintf("Added task #%d", msg.task.ID))
		return v, v.reload()

	case accountDeletedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, models.ErrInvalidCredentials) {
				v.formErr = "Wrong password"
			} else {
				v.formErr = errorText(msg.err)
			}
			v.accountPassword.Reset()
			return v, nil
		}
		v.deletingAccount = false
		return v, func() tea.Msg { return LoggedOut{} }

	case actionDoneMsg:
		if msg.err != nil {
			v.setError(msg.err)
			return v, nil
		}
		if msg.status != "" {
			v.setStatus(msg.status)
		}
		return v, v.reload()

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.showStats {
			v.showStats = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.confirmingClear {
			return v.updateConfirmClear(msg)
		}
		if v.choosingExport {
			return v.updateExport(msg)
		}
		if v.deletingAccount {
			return v.updateDeleteAccount(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Don't process hotkeys while typing a search
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.searchInput.Reset()
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, v.reload()
		case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Tab):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, nil
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.cursor = 0
			return v, tea.Batch(cmd, v.reload())
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return LoggedOut{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		return v, v.startNewTask()

	case key.Matches(msg, v.keys.Toggle), key.Matches(msg, v.keys.Enter):
		if task, ok := v.selected(); ok {
			return v, v.toggleTask(task)
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = task.ID
			v.deleteTargetName = task.Title
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.statusIdx = (v.statusIdx + 1) % len(statusViews)
		v.cursor = 0
		return v, v.reload()

	case msg.String() == "p":
		v.priority = nextPriority(v.priority)
		v.cursor = 0
		return v, v.reload()

	case msg.String() == "c":
		v.category = nextCategory(v.category, v.stats.Categories)
		v.cursor = 0
		return v, v.reload()

	case msg.String() == "X" && v.deleteAccount != nil:
		v.deletingAccount = true
		v.formErr = ""
		v.accountPassword.Reset()
		v.accountPassword.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Sort):
		v.sortIdx = (v.sortIdx + 1) % len(models.SortOrders)
		return v, v.reload()

	case key.Matches(msg, v.keys.Export):
		v.choosingExport = true
		return v, nil

	case key.Matches(msg, v.keys.Stats):
		v.showStats = true
		return v, nil

	case key.Matches(msg, v.keys.ClearCompleted):
		if v.stats.Completed > 0 {
			v.confirmingClear = true
		} else {
			v.setStatus("No completed tasks to clear")
		}
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

// nextPriority steps any → High → Medium → Low → any
func nextPriority(p models.Priority) models.Priority {
	if p == "" {
		return models.Priorities[0]
	}
	for i, q := range models.Priorities {
		if q == p && i+1 < len(models.Priorities) {
			return models.Priorities[i+1]
		}
	}
	return ""
}

// nextCategory steps through the owner's categories in name order, then back to any
func nextCategory(current string, counts map[string]int) string {
	names := slices.Sorted(maps.Keys(counts))
	if current == "" {
		if len(names) == 0 {
			return ""
		}
		return names[0]
	}
	i := slices.Index(names, current)
	if i < 0 || i+1 >= len(names) {
		return ""
	}
	return names[i+1]
}

func (v *TaskListView) toggleTask(task models.Task) tea.Cmd {
	store, owner := v.store, v.owner
	return func() tea.Msg {
		if task.Completed {
			if err := store.MarkPending(owner, task.ID); err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{status: fmt.Sprintf("Reopened %q", task.Title)}
		}
		if err := store.MarkComplete(owner, task.ID); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Completed %q", task.Title)}
	}
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		store, owner, id, name := v.store, v.owner, v.deleteTargetID, v.deleteTargetName
		return v, func() tea.Msg {
			if err := store.DeleteTask(owner, id); err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{status: fmt.Sprintf("Deleted %q", name)}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TaskListView) updateConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingClear = false
		store, owner := v.store, v.owner
		return v, func() tea.Msg {
			n, err := store.ClearCompleted(owner)
			if err != nil {
				return actionDoneMsg{err: err}
			}
			return actionDoneMsg{status: fmt.Sprintf("Cleared %d completed task(s)", n)}
		}
	case "n", "N", "esc":
		v.confirmingClear = false
	}
	return v, nil
}

func (v *TaskListView) updateExport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var format db.ExportFormat
	switch msg.String() {
	case "j", "J":
		format = db.ExportJSON
	case "t", "T":
		format = db.ExportText
	case "esc", "n", "N":
		v.choosingExport = false
		return v, nil
	default:
		return v, nil
	}
	v.choosingExport = false
	store, owner := v.store, v.owner
	return v, func() tea.Msg {
		path, err := store.Export(owner, format)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "Exported to " + path}
	}
}

func (v *TaskListView) updateDeleteAccount(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.deletingAccount = false
		v.accountPassword.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		password := v.accountPassword.Value()
		deleteAccount, owner := v.deleteAccount, v.owner
		return v, func() tea.Msg {
			if err := deleteAccount(owner, password); err != nil {
				return accountDeletedMsg{err: err}
			}
			return accountDeletedMsg{}
		}
	}
	var cmd tea.Cmd
	v.accountPassword, cmd = v.accountPassword.Update(msg)
	return v, cmd
}

type accountDeletedMsg struct {
	err error
}

func (v *TaskListView) startNewTask() tea.Cmd {
	v.creating = true
	v.formErr = ""
	v.editFocusIdx = fieldTitle
	v.editTitle.Reset()
	v.editCategory.Reset()
	v.editDue.Reset()
	v.editDesc.Reset()
	v.editPriority = models.PriorityMedium
	if choices, err := v.store.CategoryChoices(v.owner); err == nil {
		v.editCategory.SetSuggestions(choices)
	}
	v.updateEditFocus()
	return textinput.Blink
}

func (v *TaskListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveTask()

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab) && v.editFocusIdx != fieldCategory:
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.editFocusIdx == fieldSave {
			return v, v.saveTask()
		}
		v.editFocusIdx++
		v.updateEditFocus()
		return v, nil
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case fieldPriority:
		switch msg.String() {
		case "left", "h":
			v.editPriority = cyclePriority(v.editPriority, -1)
		case "right", "l", " ":
			v.editPriority = cyclePriority(v.editPriority, 1)
		case "1":
			v.editPriority = models.PriorityHigh
		case "2":
			v.editPriority = models.PriorityMedium
		case "3":
			v.editPriority = models.PriorityLow
		}
	case fieldCategory:
		// tab first accepts a pending suggestion, then moves on
		sug := v.editCategory.CurrentSuggestion()
		if key.Matches(msg, v.keys.Tab) && (sug == "" || sug == v.editCategory.Value()) {
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		}
		v.editCategory, cmd = v.editCategory.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	}
	return v, cmd
}

// cyclePriority moves through Low, Medium, High in display order
func cyclePriority(p models.Priority, dir int) models.Priority {
	order := []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}
	for i, q := range order {
		if q == p {
			return order[(i+dir+len(order))%len(order)]
		}
	}
	return models.PriorityMedium
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editCategory.Blur()
	v.editDue.Blur()
	v.editDesc.Blur()

	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle.Focus()
	case fieldCategory:
		v.editCategory.Focus()
	case fieldDue:
		v.editDue.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	}
}

func (v *TaskListView) saveTask() tea.Cmd {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		v.formErr = "Title is required"
		v.editFocusIdx = fieldTitle
		v.updateEditFocus()
		return nil
	}
	due, err := models.ParseDueDate(v.editDue.Value(), v.now())
	if err != nil {
		v.formErr = "Due date must be YYYY-MM-DD, today, tomorrow or +N"
		v.editFocusIdx = fieldDue
		v.updateEditFocus()
		return nil
	}

	in := models.TaskInput{
		Owner:       v.owner,
		Title:       title,
		Priority:    v.editPriority,
		Category:    v.editCategory.Value(),
		Description: v.editDesc.Value(),
		DueDate:     due,
	}
	store := v.store
	return func() tea.Msg {
		task, err := store.CreateTask(in)
		return taskSavedMsg{task: task, err: err}
	}
}

func (v *TaskListView) setStatus(s string) {
	v.status = s
	v.err = ""
}

func (v *TaskListView) setError(err error) {
	v.status = ""
	v.err = errorText(err)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "That task no longer exists"
	case errors.Is(err, models.ErrInvalidInput):
		return strings.TrimPrefix(err.Error(), models.ErrInvalidInput.Error()+": ")
	case errors.Is(err, models.ErrStorage):
		return "Storage error: " + err.Error()
	}
	return err.Error()
}

func (v *TaskListView) visibleItems() int {
	return max(v.height-12, 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
	if v.scrollY < 0 {
		v.scrollY = 0
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.showStats {
		return v.renderStats()
	}
	if v.confirmingDelete {
		return v.renderConfirm("Delete Task?", fmt.Sprintf("%q will be removed.", v.deleteTargetName))
	}
	if v.confirmingClear {
		return v.renderConfirm("Clear Completed?", fmt.Sprintf("%d completed task(s) will be removed.", v.stats.Completed))
	}
	if v.choosingExport {
		return v.renderExport()
	}
	if v.deletingAccount {
		return v.renderDeleteAccount()
	}
	if v.creating {
		return v.renderCreateForm()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	title := s.Title.Render(v.owner+"'s tasks") + "  " + s.TitleMuted.Render(fmt.Sprintf(
		"%d total • %d done • %d pending • %.2f%%",
		v.stats.Total, v.stats.Completed, v.stats.Pending, v.stats.CompletionRate,
	))

	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Width(clamp(contentWidth-40, 10, 30)).Render(v.searchInput.View())

	priorityLabel := "Any"
	if v.priority != "" {
		priorityLabel = string(v.priority)
	}
	categoryLabel := "Any"
	if v.category != "" {
		categoryLabel = v.category
	}
	filters := s.TitleMuted.Render(fmt.Sprintf("Show: %s • Priority: %s • Category: %s • Sort: %s",
		statusViews[v.statusIdx].label, priorityLabel, categoryLabel, v.currentSort().Label()))

	if contentWidth < 60 {
		return lipgloss.JoinVertical(lipgloss.Left, title, searchBox, filters)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Center, searchBox, "  ", filters))
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		if v.currentFilter().IsZero() {
			return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
		}
		return s.TitleMuted.Render("No tasks match the current filter.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.tasks))
	now := v.now()
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && v.focus == FocusTaskList, now))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) priorityStyle(p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityHigh:
		return v.styles.PriorityHigh
	case models.PriorityMedium:
		return v.styles.PriorityMed
	}
	return v.styles.PriorityLow
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool, now time.Time) string {
	s := v.styles

	check := "[ ]"
	titleStyle := s.TaskTitle
	if task.Completed {
		check = "[x]"
		titleStyle = s.TaskDone
	}

	parts := []string{
		check,
		v.priorityStyle(task.Priority).Render(fmt.Sprintf("%-6s", task.Priority)),
		titleStyle.Render(task.Title),
		s.Category.Render("#" + task.Category),
	}
	if label := dueLabel(task, now); label != "" {
		st := s.TitleMuted
		switch {
		case task.IsOverdue(now):
			st = s.TaskOverdue
		case task.IsDueWithin(now, v.store.DueSoonDays()):
			st = s.TaskDueSoon
		}
		parts = append(parts, st.Render(label))
	}

	line := strings.Join(parts, " ")
	if selected {
		return s.ListSelected.Render(line)
	}
	return s.TaskItem.Render(line)
}

// dueLabel describes when a task is due relative to now
func dueLabel(task models.Task, now time.Time) string {
	days, ok := task.DaysUntilDue(now)
	if !ok {
		return ""
	}
	if task.Completed {
		return "due " + task.DueDate.Format(models.DateLayout)
	}
	switch {
	case task.IsOverdue(now) && days >= 0:
		return "overdue"
	case days < 0:
		return fmt.Sprintf("overdue %dd", -days)
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	}
	return fmt.Sprintf("due in %dd", days)
}

func (v *TaskListView) renderStatusLine() string {
	switch {
	case v.err != "":
		return v.styles.ErrorMessage.Render(v.err)
	case v.status != "":
		return v.styles.StatusMessage.Render(v.status)
	}
	return ""
}

func (v *TaskListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	style := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}

	var prios []string
	for _, p := range []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh} {
		label := " " + string(p) + " "
		if p == v.editPriority {
			prios = append(prios, v.priorityStyle(p).Reverse(true).Render(label))
		} else {
			prios = append(prios, s.TitleMuted.Render(label))
		}
	}

	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}

	rows := []string{
		s.Title.Render("New Task"),
		"",
		"Title:",
		style(fieldTitle).Width(inputWidth).Render(v.editTitle.View()),
		"Priority:",
		style(fieldPriority).Width(inputWidth).Render(strings.Join(prios, " ")),
		"Category:",
		style(fieldCategory).Width(inputWidth).Render(v.editCategory.View()),
		"Due date:",
		style(fieldDue).Width(inputWidth).Render(v.editDue.View()),
		"Description:",
		style(fieldDesc).Render(v.editDesc.View()),
		"",
		btnStyle.Render(" Create "),
	}
	if v.formErr != "" {
		rows = append(rows, s.ErrorMessage.Render(v.formErr))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • ←→: priority • Ctrl+S: save • Esc: cancel"))

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderStats() string {
	s := v.styles
	st := v.stats
	contentWidth := styles.ContentWidth(v.width)

	rows := []string{
		s.Title.Render("Statistics"),
		"",
		fmt.Sprintf("Total:           %d", st.Total),
		fmt.Sprintf("Completed:       %d", st.Completed),
		fmt.Sprintf("Pending:         %d", st.Pending),
		fmt.Sprintf("Overdue:         %d", st.Overdue),
		fmt.Sprintf("Due in %d days:   %d", v.store.DueSoonDays(), st.DueSoon),
		fmt.Sprintf("Completion rate: %.2f%%", st.CompletionRate),
		"",
		s.TitleMuted.Render("By priority"),
	}
	for _, p := range models.Priorities {
		rows = append(rows, v.priorityStyle(p).Render(fmt.Sprintf("  %-8s %d", p, st.Priorities[p])))
	}
	if len(st.Categories) > 0 {
		rows = append(rows, "", s.TitleMuted.Render("By category"))
		for _, c := range slices.Sorted(maps.Keys(st.Categories)) {
			rows = append(rows, fmt.Sprintf("  %-12s %d", c, st.Categories[c]))
		}
	}
	rows = append(rows, "", s.TitleMuted.Render("Press any key to close"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderExport() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("Export Tasks"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" J - JSON "),
			"  ",
			s.ButtonPrimary.Render(" T - Text "),
			"  ",
			s.Button.Render(" Esc - Cancel "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteAccount() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	rows := []string{
		s.Title.Foreground(styles.Current.Error).Render("Delete Account?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and all of their tasks will be removed.", v.owner)),
		"",
		s.InputFocused.Width(clamp(contentWidth-6, 20, 40)).Render(v.accountPassword.View()),
	}
	if v.formErr != "" {
		rows = append(rows, s.ErrorMessage.Render(v.formErr))
	}
	rows = append(rows, "", s.TitleMuted.Render("↵: delete • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderConfirm(title, detail string) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s done • %s new • %s del • %s search • %s show • %s sort • %s stats • %s logout • %s quit",
			v.styles.HelpKey.Render("space"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("f"),
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("i"),
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("space") + "  toggle done",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("f") + "      cycle all / pending / completed / overdue / due soon",
		s.HelpKey.Render("p") + "      cycle priority filter",
		s.HelpKey.Render("c") + "      cycle category filter",
		s.HelpKey.Render("s") + "      cycle sort order",
		s.HelpKey.Render("e") + "      export",
		s.HelpKey.Render("i") + "      statistics",
		s.HelpKey.Render("C") + "      clear completed",
		s.HelpKey.Render("X") + "      delete account",
		s.HelpKey.Render("esc") + "    log out",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
