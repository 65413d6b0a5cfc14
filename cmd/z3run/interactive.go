package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	inputEchoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const helpText = ":check  :model  :push  :pop  :reset  :show  :quit"

// interactiveModel is an SMT-LIB2 session. Entered commands accumulate in
// a script; every check runs the whole script on a fresh context, so a
// failed check never leaves the session in a half-asserted state.
type interactiveModel struct {
	r      *runner
	input  textinput.Model
	view   viewport.Model
	script []string
	marks  []int
	output []string
	model  string
}

type checkResultMsg struct {
	err error
	res result
}

type validatedMsg struct {
	err  error
	line string
}

func newInteractiveModel(r *runner) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "(declare-const x Int)"
	ti.Prompt = "smt> "
	ti.Width = 72
	ti.Focus()
	return &interactiveModel{
		r:     r,
		input: ti,
		view:  viewport.New(80, 20),
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			m.echo(line)
			return m, m.command(line)
		}

	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = msg.Height - 4
		m.refresh()

	case validatedMsg:
		if msg.err != nil {
			m.print(errorStyle.Render(fmt.Sprintf("Error: %v", msg.err)))
		} else {
			m.script = append(m.script, msg.line)
		}

	case checkResultMsg:
		if msg.err != nil {
			m.print(errorStyle.Render(fmt.Sprintf("Error: %v", msg.err)))
			break
		}
		status := statusStyle(msg.res.status).Render(msg.res.status.String())
		if msg.res.reason != "" {
			status += " (" + msg.res.reason + ")"
		}
		m.print(status)
		m.model = msg.res.model
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.view, cmd = m.view.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// command handles one line of input. SMT-LIB text is validated against the
// script so far before it is kept.
func (m *interactiveModel) command(line string) tea.Cmd {
	switch line {
	case ":quit", ":q":
		return tea.Quit
	case ":check":
		src := m.source()
		return func() tea.Msg {
			res, err := m.r.check(src)
			return checkResultMsg{res: res, err: err}
		}
	case ":model":
		if m.model == "" {
			m.print(helpStyle.Render("no model; run :check on a satisfiable script"))
		} else {
			m.print(modelStyle.Render(strings.TrimRight(m.model, "\n")))
		}
	case ":push":
		m.marks = append(m.marks, len(m.script))
		m.model = ""
	case ":pop":
		if len(m.marks) == 0 {
			m.print(errorStyle.Render("Error: no scope to pop"))
			return nil
		}
		last := len(m.marks) - 1
		m.script = m.script[:m.marks[last]]
		m.marks = m.marks[:last]
		m.model = ""
	case ":reset":
		m.script, m.marks, m.model = nil, nil, ""
	case ":show":
		if len(m.script) == 0 {
			m.print(helpStyle.Render("(empty)"))
		} else {
			m.print(m.source())
		}
	default:
		if strings.HasPrefix(line, ":") {
			m.print(errorStyle.Render("Error: unknown command " + line))
			m.print(helpStyle.Render(helpText))
			return nil
		}
		m.model = ""
		src := m.source() + "\n" + line
		return func() tea.Msg {
			_, err := m.r.parse(src)
			return validatedMsg{line: line, err: err}
		}
	}
	return nil
}

func (m *interactiveModel) source() string {
	return strings.Join(m.script, "\n")
}

func (m *interactiveModel) echo(line string) {
	m.print(inputEchoStyle.Render(m.input.Prompt + line))
}

func (m *interactiveModel) print(s string) {
	m.output = append(m.output, s)
	m.refresh()
}

func (m *interactiveModel) refresh() {
	m.view.SetContent(strings.Join(m.output, "\n"))
	m.view.GotoBottom()
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Z3 Runner"))
	b.WriteString(fmt.Sprintf(" %d commands, %d scopes\n", len(m.script), len(m.marks)))
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpText + " • esc quit"))
	return b.String()
}

func runInteractive(r *runner) error {
	r.styled = true
	p := tea.NewProgram(newInteractiveModel(r), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
