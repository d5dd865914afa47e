package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/BuzzLyutic/todo-app/internal/controller"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtitleStyle  = lipgloss.NewStyle().Faint(true)
	onlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	offlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	statStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2).Align(lipgloss.Center)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle = tabStyle.Reverse(true)
	cursorStyle    = lipgloss.NewStyle().Bold(true)
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	busyStyle      = lipgloss.NewStyle().Faint(true)
	counterStyle   = lipgloss.NewStyle().Faint(true)
	overStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.statsView())
	b.WriteString("\n")

	if m.state.Err != "" {
		b.WriteString(errorStyle.Render("! " + m.state.Err))
		b.WriteString(subtitleStyle.Render("  (r to retry)"))
		b.WriteString("\n\n")
	}

	b.WriteString(m.inputView())
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")
	b.WriteString(m.listView())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(keys.ShortHelp()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) headerView() string {
	title := titleStyle.Render("TodoApp") + "  " + subtitleStyle.Render("Simple, clean task management")
	status := onlineStyle.Render("● Connected")
	if !m.state.IsOnline {
		status = offlineStyle.Render("● Offline")
	}
	return title + "\n" + status
}

func (m Model) statsView() string {
	s := m.state.Stats
	box := func(n int, label string) string {
		return statStyle.Render(fmt.Sprintf("%d\n%s", n, label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box(s.Total, "Total"),
		box(s.Completed, "Completed"),
		box(s.Pending, "Pending"),
	)
}

func (m Model) inputView() string {
	n := len([]rune(m.input.Value()))
	counter := counterStyle.Render(fmt.Sprintf("%d/%d", n, maxTaskLength))
	if n >= maxTaskLength {
		counter = overStyle.Render(fmt.Sprintf("%d/%d", n, maxTaskLength))
	}
	line := m.input.View() + "  " + counter
	if m.submitting {
		line += "  " + m.spinner.View() + " adding..."
	}
	return line
}

func (m Model) tabsView() string {
	fs := m.state.FilteredStats
	counts := map[controller.Filter]int{
		controller.FilterAll:       fs.Total,
		controller.FilterPending:   fs.Pending,
		controller.FilterCompleted: fs.Completed,
	}
	labels := map[controller.Filter]string{
		controller.FilterAll:       "All",
		controller.FilterPending:   "Pending",
		controller.FilterCompleted: "Completed",
	}

	tabs := make([]string, 0, len(filterOrder))
	for _, f := range filterOrder {
		label := labels[f]
		if counts[f] > 0 {
			label = fmt.Sprintf("%s (%d)", label, counts[f])
		}
		style := tabStyle
		if f == m.state.ActiveFilter {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) listView() string {
	if m.state.IsLoading {
		return m.spinner.View() + " Loading tasks...\n"
	}
	if len(m.state.Tasks) == 0 {
		if strings.TrimSpace(m.state.SearchQuery) != "" || m.state.ActiveFilter != controller.FilterAll {
			return subtitleStyle.Render("No tasks match the current filters.") + "\n"
		}
		return subtitleStyle.Render("No tasks yet. Add your first task to get started!") + "\n"
	}

	var b strings.Builder
	for i, t := range m.state.Tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		text := t.Text
		if t.Completed {
			text = doneStyle.Render(text)
		}
		line := check + " " + text
		if m.state.InFlight[t.ID] {
			line = busyStyle.Render(check+" "+t.Text) + " " + m.spinner.View()
		}

		prefix := "  "
		if i == m.cursor && m.focus == focusList {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix + line)
		b.WriteString(subtitleStyle.Render("  " + t.CreatedAt.Local().Format("Jan 2 15:04")))
		b.WriteString("\n")
	}
	return b.String()
}
