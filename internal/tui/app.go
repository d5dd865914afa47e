// Package tui - терминальный интерфейс.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BuzzLyutic/todo-app/internal/controller"
)

const maxTaskLength = 500

type focus int

const (
	focusList focus = iota
	focusInput
	focusSearch
)

var filterOrder = []controller.Filter{
	controller.FilterAll,
	controller.FilterPending,
	controller.FilterCompleted,
}

type stateChangedMsg struct{}

type loadedMsg struct{ err error }

type createdMsg struct{ err error }

type opDoneMsg struct {
	id  int64
	err error
}

type Model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	changes <-chan struct{}

	state      controller.State
	cursor     int
	focus      focus
	submitting bool
	width      int

	input   textinput.Model
	search  textinput.Model
	spinner spinner.Model
	help    help.Model
}

func New(ctx context.Context, ctrl *controller.Controller) Model {
	input := textinput.New()
	input.Placeholder = "What needs to be done?"
	input.CharLimit = maxTaskLength
	input.Prompt = "+ "

	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		changes: ctrl.Subscribe(),
		state:   ctrl.Snapshot(),
		input:   input,
		search:  search,
		spinner: sp,
		help:    help.New(),
	}
}

// Run блокируется до выхода из программы
func Run(ctx context.Context, ctrl *controller.Controller) error {
	ctrl.StartPolling(ctx)
	defer ctrl.Close()

	program := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(false), waitForChange(m.changes), m.spinner.Tick)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return stateChangedMsg{}
	}
}

func (m Model) loadCmd(retry bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if retry {
			err = m.ctrl.Retry(m.ctx)
		} else {
			err = m.ctrl.Load(m.ctx)
		}
		return loadedMsg{err: err}
	}
}

func (m Model) createCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.Create(m.ctx, text)
		return createdMsg{err: err}
	}
}

func (m Model) toggleCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.Toggle(m.ctx, id)
		return opDoneMsg{id: id, err: err}
	}
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{id: id, err: m.ctrl.Delete(m.ctx, id)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case stateChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case loadedMsg, opDoneMsg:
		m.refresh()
		return m, nil

	case createdMsg:
		m.submitting = false
		if msg.err == nil {
			m.input.Reset()
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.focus {
		case focusInput:
			return m.updateInput(msg)
		case focusSearch:
			return m.updateSearch(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.state.Tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if id, ok := m.selectedIdle(); ok {
			return m, m.toggleCmd(id)
		}
	case key.Matches(msg, keys.Delete):
		if id, ok := m.selectedIdle(); ok {
			return m, m.deleteCmd(id)
		}
	case key.Matches(msg, keys.New):
		m.focus = focusInput
		return m, m.input.Focus()
	case key.Matches(msg, keys.Search):
		m.focus = focusSearch
		return m, m.search.Focus()
	case key.Matches(msg, keys.NextTab):
		m.ctrl.SetFilter(nextFilter(m.state.ActiveFilter))
		m.refresh()
	case key.Matches(msg, keys.All):
		m.ctrl.SetFilter(controller.FilterAll)
		m.refresh()
	case key.Matches(msg, keys.Pending):
		m.ctrl.SetFilter(controller.FilterPending)
		m.refresh()
	case key.Matches(msg, keys.Completed):
		m.ctrl.SetFilter(controller.FilterCompleted)
		m.refresh()
	case key.Matches(msg, keys.Retry):
		if m.state.Err != "" && !m.state.IsLoading {
			return m, m.loadCmd(true)
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		m.input.Blur()
		m.focus = focusList
		return m, nil
	case key.Matches(msg, keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.submitting {
			return m, nil
		}
		m.submitting = true
		return m, m.createCmd(text)
	}
	if m.submitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Submit):
		m.search.Blur()
		m.focus = focusList
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.state.SearchQuery {
		m.ctrl.SetSearch(m.search.Value())
		m.refresh()
	}
	return m, cmd
}

func (m *Model) refresh() {
	m.state = m.ctrl.Snapshot()
	if m.cursor >= len(m.state.Tasks) {
		m.cursor = len(m.state.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// selectedIdle: задача под курсором, если по ней нет запроса в полете
func (m Model) selectedIdle() (int64, bool) {
	if len(m.state.Tasks) == 0 {
		return 0, false
	}
	id := m.state.Tasks[m.cursor].ID
	if m.state.InFlight[id] {
		return 0, false
	}
	return id, true
}

func nextFilter(f controller.Filter) controller.Filter {
	for i, cur := range filterOrder {
		if cur == f {
			return filterOrder[(i+1)%len(filterOrder)]
		}
	}
	return controller.FilterAll
}
