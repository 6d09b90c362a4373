// Package picker implements the interactive Bubble Tea selector used by the
// category commands with --interactive. It lists the packages that would be
// installed, lets the user untick some and type extra names, then asks for
// confirmation. When Options.Yes is true the TUI is skipped and every
// package is returned.
package picker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user quits the picker.
var ErrCancelled = errors.New("selection cancelled")

// Item is one selectable package.
type Item struct {
	Name  string
	Range string // version range from package.json, shown dimmed
}

// Options controls picker behaviour.
type Options struct {
	// Title names the category being installed.
	Title string
	// Yes skips the TUI and returns every item.
	Yes bool
}

// Run shows the picker and returns the chosen package names in list order,
// followed by any extra names typed by the user.
func Run(items []Item, opts Options) ([]string, error) {
	if opts.Yes {
		return allNames(items), nil
	}

	p := tea.NewProgram(newModel(items, opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	result := final.(pickerModel)
	if result.cancelled {
		return nil, ErrCancelled
	}
	return result.selection(), nil
}

// ── styles ────────────────────────────────────────────────────────────────────

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	helpStyle     = dimStyle
)

// ── model stages ─────────────────────────────────────────────────────────────

type stage int

const (
	stageSelect  stage = iota // ticking packages, typing extras
	stageConfirm              // confirm / cancel
)

type checkItem struct {
	name    string
	rng     string
	checked bool
}

type pickerModel struct {
	title      string
	items      []checkItem
	extraInput textinput.Model
	stage      stage
	cursor     int
	inputFocus bool
	cancelled  bool
	confirmed  bool
}

func newModel(items []Item, opts Options) pickerModel {
	ei := textinput.New()
	ei.Placeholder = "extra packages, space separated"
	ei.Width = 50

	checks := make([]checkItem, len(items))
	for i, it := range items {
		checks[i] = checkItem{name: it.Name, rng: it.Range, checked: true}
	}

	// Nothing to tick: start in the input so the user can type names.
	focus := len(checks) == 0
	if focus {
		ei.Focus()
	}

	return pickerModel{
		title:      opts.Title,
		items:      checks,
		extraInput: ei,
		stage:      stageSelect,
		inputFocus: focus,
	}
}

// ── tea.Model interface ───────────────────────────────────────────────────────

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(key)
	}
	var cmd tea.Cmd
	if m.stage == stageSelect && m.inputFocus {
		m.extraInput, cmd = m.extraInput.Update(msg)
	}
	return m, cmd
}

func (m pickerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageSelect:
		return m.handleSelectKey(msg)
	case stageConfirm:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

func (m pickerModel) handleSelectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "tab":
		m.inputFocus = !m.inputFocus
		if m.inputFocus {
			m.extraInput.Focus()
		} else {
			m.extraInput.Blur()
		}
		return m, textinput.Blink
	case "enter":
		m.stage = stageConfirm
		return m, nil
	}

	if m.inputFocus {
		var cmd tea.Cmd
		m.extraInput, cmd = m.extraInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ":
		m.toggleCursor()
	case "a":
		m.toggleAll()
	}
	return m, nil
}

func (m pickerModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "n", "N":
		m.cancelled = true
		return m, tea.Quit
	case "b", "backspace":
		m.stage = stageSelect
		return m, nil
	case "enter", "y", "Y":
		m.confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *pickerModel) toggleCursor() {
	if m.cursor < len(m.items) {
		m.items[m.cursor].checked = !m.items[m.cursor].checked
	}
}

// toggleAll unticks everything when all items are ticked, otherwise ticks all.
func (m *pickerModel) toggleAll() {
	all := true
	for _, it := range m.items {
		all = all && it.checked
	}
	for i := range m.items {
		m.items[i].checked = !all
	}
}

// ── View ──────────────────────────────────────────────────────────────────────

func (m pickerModel) View() string {
	switch m.stage {
	case stageSelect:
		return m.viewSelect()
	case stageConfirm:
		return m.viewConfirm()
	}
	return ""
}

func (m pickerModel) viewSelect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  kb-yarn") + "  " + m.title + "\n\n")

	b.WriteString("  " + sectionStyle.Render("─── From package.json ───") + "\n")
	if len(m.items) == 0 {
		b.WriteString("  " + dimStyle.Render("  (nothing listed)") + "\n")
	}
	for i, it := range m.items {
		b.WriteString(m.renderItem(i, it))
	}
	b.WriteString("\n")

	b.WriteString("  " + sectionStyle.Render("─── Extra packages ───") + "\n")
	b.WriteString("  " + m.extraInput.View() + "\n\n")

	b.WriteString(helpStyle.Render("  ↑↓ move · space toggle · a all · tab extras · enter next · esc quit"))
	return b.String()
}

func (m pickerModel) renderItem(idx int, item checkItem) string {
	cursor := "  "
	if idx == m.cursor && !m.inputFocus {
		cursor = focusStyle.Render(" ▶")
	}
	check := "○"
	style := normalStyle
	if item.checked {
		check = selectedStyle.Render("◉")
		style = selectedStyle
	}
	return fmt.Sprintf("%s %s  %-30s  %s\n",
		cursor, check,
		style.Render(item.name),
		dimStyle.Render(item.rng),
	)
}

func (m pickerModel) viewConfirm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  kb-yarn") + "  ready to install\n\n")

	sel := m.selection()
	if len(sel) == 0 {
		b.WriteString("  " + dimStyle.Render("Nothing selected, yarn will not run.") + "\n\n")
	} else {
		b.WriteString(fmt.Sprintf("  %s %s\n\n", sectionStyle.Render(m.title+":"), focusStyle.Render(strings.Join(sel, " "))))
	}

	b.WriteString(helpStyle.Render("  Press enter to install · b to go back · n to cancel"))
	return b.String()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (m pickerModel) selection() []string {
	out := []string{}
	for _, it := range m.items {
		if it.checked {
			out = append(out, it.name)
		}
	}
	return append(out, strings.Fields(m.extraInput.Value())...)
}

func allNames(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
