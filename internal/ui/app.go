package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewLogin View = iota
	ViewTasks
)

type App struct {
	db          *db.DB
	logger      *log.Logger
	currentView View
	login       *views.LoginView
	taskList    *views.TaskListView
	width       int
	height      int
}

// Creates a new application. The login form is prefilled with the last
// user who signed in.
func NewApp(database *db.DB, logger *log.Logger) *App {
	last, err := database.GetSetting(db.SettingLastUsername)
	if err != nil {
		logger.Warn("read last username", "err", err)
	}
	return &App{
		db:          database,
		logger:      logger,
		currentView: ViewLogin,
		login:       views.NewLoginView(database.Users, last),
	}
}

// CurrentView reports which screen is showing
func (a *App) CurrentView() View {
	return a.currentView
}

func (a *App) Init() tea.Cmd {
	return a.login.Init()
}

func (a *App) resize() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

func (a *App) openTasks(username string) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.db.Tasks, username)
	a.taskList.SetAccountDeleter(a.db.DeleteAccount)

	if err := a.db.SetSetting(db.SettingLastUsername, username); err != nil {
		a.logger.Warn("save last username", "err", err)
	}
	a.logger.Info("user logged in", "username", username)

	return tea.Batch(a.taskList.Init(), a.resize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update the login view size since it persists
		a.login.Update(msg)

	case views.LoggedIn:
		return a, a.openTasks(msg.User.Username)

	case views.LoggedOut:
		if a.taskList != nil {
			a.logger.Info("user logged out", "username", a.taskList.Owner())
		}
		a.currentView = ViewLogin
		last, _ := a.db.GetSetting(db.SettingLastUsername)
		a.login = views.NewLoginView(a.db.Users, last)
		a.taskList = nil
		return a, tea.Batch(a.login.Init(), a.resize())
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLogin:
		_, cmd = a.login.Update(msg)
	case ViewTasks:
		if a.taskList != nil {
			_, cmd = a.taskList.Update(msg)
		}
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewTasks:
		if a.taskList != nil {
			return a.taskList.View()
		}
	}
	return a.login.View()
}
