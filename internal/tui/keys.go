package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Delete    key.Binding
	New       key.Binding
	Search    key.Binding
	NextTab   key.Binding
	All       key.Binding
	Pending   key.Binding
	Completed key.Binding
	Retry     key.Binding
	Quit      key.Binding
	Submit    key.Binding
	Back      key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
	New:       key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filter")),
	All:       key.NewBinding(key.WithKeys("1")),
	Pending:   key.NewBinding(key.WithKeys("2")),
	Completed: key.NewBinding(key.WithKeys("3")),
	Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Submit:    key.NewBinding(key.WithKeys("enter")),
	Back:      key.NewBinding(key.WithKeys("esc")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Delete, k.New, k.Search, k.NextTab, k.Retry, k.Quit}
}
