package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the views react to
type KeyMap struct {
	Quit           key.Binding
	Back           key.Binding
	Enter          key.Binding
	Tab            key.Binding
	Up             key.Binding
	Down           key.Binding
	New            key.Binding
	Delete         key.Binding
	Search         key.Binding
	Filter         key.Binding
	Toggle         key.Binding
	Sort           key.Binding
	Export         key.Binding
	Stats          key.Binding
	ClearCompleted key.Binding
	SwitchMode     key.Binding
	Help           key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "select"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "done"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Stats: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "stats"),
		),
		ClearCompleted: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear done"),
		),
		SwitchMode: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "login/register"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
