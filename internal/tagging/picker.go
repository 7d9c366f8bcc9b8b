package tagging

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"naturatag/internal/species"
)

var (
	pickerTitleStyle    = lipgloss.NewStyle().Bold(true)
	pickerCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	pickerCheckedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("84"))
	pickerHelpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	pickerHelpDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// pickerKeyMap defines key bindings for the candidate picker.
type pickerKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

var defaultPickerKeys = pickerKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "toggle"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "q", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

type pickerModel struct {
	photo      string
	candidates []species.Candidate
	checked    []bool
	cursor     int
	keys       pickerKeyMap
	confirmed  bool
	cancelled  bool
}

func newPickerModel(photo string, candidates []species.Candidate) pickerModel {
	return pickerModel{
		photo:      photo,
		candidates: candidates,
		checked:    make([]bool, len(candidates)),
		keys:       defaultPickerKeys,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Toggle):
		m.checked[m.cursor] = !m.checked[m.cursor]
	case key.Matches(keyMsg, m.keys.Confirm):
		m.confirmed = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Cancel):
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(fmt.Sprintf("Select species for %s", m.photo)))
	b.WriteString("\n\n")

	for i, candidate := range m.candidates {
		cursor := "  "
		if i == m.cursor {
			cursor = pickerCursorStyle.Render("> ")
		}
		box := "[ ]"
		label := candidate.Label()
		if m.checked[i] {
			box = pickerCheckedStyle.Render("[x]")
			label = pickerCheckedStyle.Render(label)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, box, label)
	}

	b.WriteString("\n")
	for i, binding := range []key.Binding{m.keys.Toggle, m.keys.Confirm, m.keys.Cancel} {
		if i > 0 {
			b.WriteString(pickerHelpDescStyle.Render(" · "))
		}
		b.WriteString(pickerHelpKeyStyle.Render(binding.Help().Key))
		b.WriteString(pickerHelpDescStyle.Render(" " + binding.Help().Desc))
	}
	b.WriteString("\n")
	return b.String()
}

func (m pickerModel) selection() []species.Candidate {
	var chosen []species.Candidate
	for i, checked := range m.checked {
		if checked {
			chosen = append(chosen, m.candidates[i])
		}
	}
	return chosen
}

// TerminalSelector presents the candidate picker in the terminal.
type TerminalSelector struct{}

// Select runs the picker and returns the checked candidates. Cancelling the
// picker returns ErrSelectionCancelled; confirming with nothing checked
// returns an empty selection.
func (TerminalSelector) Select(ctx context.Context, photo string, candidates []species.Candidate) ([]species.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	program := tea.NewProgram(newPickerModel(photo, candidates), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("run picker: %w", err)
	}

	model, ok := final.(pickerModel)
	if !ok {
		return nil, fmt.Errorf("unexpected picker model %T", final)
	}
	if model.cancelled || !model.confirmed {
		return nil, ErrSelectionCancelled
	}
	return model.selection(), nil
}
