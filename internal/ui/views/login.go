package views

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/ui/keys"
	"github.com/tgienger/todo/internal/ui/styles"
)

// Accounts is the part of the account store the login screen needs
type Accounts interface {
	Register(username, password string) (*models.User, error)
	Authenticate(username, password string) (*models.User, error)
}

// LoginMode selects between signing in and creating an account
type LoginMode int

const (
	ModeLogin LoginMode = iota
	ModeRegister
)

// LoggedIn is sent once a user has authenticated
type LoggedIn struct {
	User models.User
}

type authResultMsg struct {
	user       *models.User
	registered bool
	err        error
}

// LoginView is the first screen: sign in or register
type LoginView struct {
	accounts Accounts
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int

	mode     LoginMode
	username textinput.Model
	password textinput.Model
	confirm  textinput.Model
	focusIdx int // username, password, [confirm], submit

	busy   bool
	status string
	err    string

	showHelpPopup bool
}

// NewLoginView creates the login screen, prefilling lastUsername if set
func NewLoginView(accounts Accounts, lastUsername string) *LoginView {
	s := styles.NewStyles()

	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 100
	username.SetValue(lastUsername)

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 72
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	confirm := textinput.New()
	confirm.Placeholder = "Confirm password"
	confirm.CharLimit = 72
	confirm.EchoMode = textinput.EchoPassword
	confirm.EchoCharacter = '•'

	v := &LoginView{
		accounts: accounts,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		username: username,
		password: password,
		confirm:  confirm,
	}
	if lastUsername != "" {
		v.focusIdx = 1
	}
	v.updateFocus()
	return v
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// Mode returns the current form mode
func (v *LoginView) Mode() LoginMode {
	return v.mode
}

func (v *LoginView) fieldCount() int {
	if v.mode == ModeRegister {
		return 4
	}
	return 3
}

func (v *LoginView) submitIdx() int {
	return v.fieldCount() - 1
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case authResultMsg:
		v.busy = false
		if msg.err != nil {
			v.status = ""
			v.err = authErrorText(msg.err)
			return v, nil
		}
		if msg.registered {
			v.setMode(ModeLogin)
			v.password.Reset()
			v.confirm.Reset()
			v.focusIdx = 1
			v.updateFocus()
			v.err = ""
			v.status = fmt.Sprintf("Account %q created. Log in to continue.", msg.user.Username)
			return v, nil
		}
		user := *msg.user
		return v, func() tea.Msg { return LoggedIn{User: user} }

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		return v.updateKeys(msg)
	}

	return v, nil
}

func (v *LoginView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.mode == ModeRegister {
			v.setMode(ModeLogin)
			return v, nil
		}
		return v, tea.Quit

	case key.Matches(msg, v.keys.SwitchMode):
		if v.mode == ModeLogin {
			v.setMode(ModeRegister)
		} else {
			v.setMode(ModeLogin)
		}
		return v, nil

	case msg.String() == "shift+tab", msg.String() == "up":
		v.focusIdx = (v.focusIdx + v.fieldCount() - 1) % v.fieldCount()
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab), msg.String() == "down":
		v.focusIdx = (v.focusIdx + 1) % v.fieldCount()
		v.updateFocus()
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.submit()

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < v.submitIdx() {
			v.focusIdx++
			v.updateFocus()
			if v.focusIdx < v.submitIdx() {
				return v, nil
			}
		}
		return v, v.submit()

	case msg.String() == "?" && v.focusIdx == v.submitIdx():
		v.showHelpPopup = true
		return v, nil
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.username, cmd = v.username.Update(msg)
	case 1:
		v.password, cmd = v.password.Update(msg)
	case 2:
		if v.mode == ModeRegister {
			v.confirm, cmd = v.confirm.Update(msg)
		}
	}
	return v, cmd
}

func (v *LoginView) setMode(mode LoginMode) {
	v.mode = mode
	v.err = ""
	v.status = ""
	v.confirm.Reset()
	if v.focusIdx >= v.fieldCount() {
		v.focusIdx = v.submitIdx()
	}
	v.updateFocus()
}

func (v *LoginView) updateFocus() {
	v.username.Blur()
	v.password.Blur()
	v.confirm.Blur()

	switch v.focusIdx {
	case 0:
		v.username.Focus()
	case 1:
		v.password.Focus()
	case 2:
		if v.mode == ModeRegister {
			v.confirm.Focus()
		}
	}
}

// submit validates the form locally and hands the store call to a command
func (v *LoginView) submit() tea.Cmd {
	if v.busy {
		return nil
	}
	username := v.username.Value()
	password := v.password.Value()

	v.status = ""
	if v.mode == ModeRegister && password != v.confirm.Value() {
		v.err = "Passwords do not match"
		return nil
	}
	v.err = ""
	v.busy = true

	accounts := v.accounts
	if v.mode == ModeRegister {
		return func() tea.Msg {
			user, err := accounts.Register(username, password)
			return authResultMsg{user: user, registered: true, err: err}
		}
	}
	return func() tea.Msg {
		user, err := accounts.Authenticate(username, password)
		return authResultMsg{user: user, err: err}
	}
}

func authErrorText(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, models.ErrDuplicateUser):
		return "That username is already taken"
	case errors.Is(err, models.ErrInvalidInput):
		return "Username and password are required"
	}
	return "Could not read account data: " + err.Error()
}

// View renders the view
func (v *LoginView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 40)

	title := "Log In"
	button := " Log In "
	if v.mode == ModeRegister {
		title = "Create Account"
		button = " Register "
	}

	field := func(idx int, m textinput.Model) string {
		st := s.Input
		if v.focusIdx == idx {
			st = s.InputFocused
		}
		return st.Width(inputWidth).Render(m.View())
	}

	rows := []string{
		s.Title.Render("todo"),
		s.TitleMuted.Render(title),
		"",
		"Username:",
		field(0, v.username),
		"",
		"Password:",
		field(1, v.password),
	}
	if v.mode == ModeRegister {
		rows = append(rows, "", "Confirm:", field(2, v.confirm))
	}

	btnStyle := s.Button
	if v.focusIdx == v.submitIdx() {
		btnStyle = s.ButtonFocused
	}
	rows = append(rows, "", btnStyle.Render(button), "")

	switch {
	case v.busy:
		rows = append(rows, s.TitleMuted.Render("Checking..."))
	case v.err != "":
		rows = append(rows, s.ErrorMessage.Render(v.err))
	case v.status != "":
		rows = append(rows, s.StatusMessage.Render(v.status))
	default:
		rows = append(rows, "")
	}
	rows = append(rows, v.renderHelp())

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *LoginView) renderHelp() string {
	s := v.styles
	switchLabel := "register"
	if v.mode == ModeRegister {
		switchLabel = "log in"
	}
	return s.TitleMuted.Render(fmt.Sprintf("Tab: next • ↵: submit • Ctrl+R: %s • Esc: quit", switchLabel))
}

func (v *LoginView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("tab") + "     next field",
		s.HelpKey.Render("↵") + "       submit",
		s.HelpKey.Render("ctrl+r") + "  switch log in / register",
		s.HelpKey.Render("esc") + "     back / quit",
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
