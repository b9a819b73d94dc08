package cli

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/materialgate/gatepass/internal/db"
	"github.com/materialgate/gatepass/internal/workflow"
)

var (
	gateTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gateInputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	gatePassStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("10")).
			Foreground(lipgloss.Color("10")).
			Bold(true).
			Padding(1, 4)
	gateBlockStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("9")).
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Padding(1, 4)
	gateHintStyle = lipgloss.NewStyle().Faint(true)
)

type gateCheckMsg struct {
	status *workflow.GateStatus
	err    error
}

// gateModel is the guard's scan screen: type or scan a request id, get a
// PASS/BLOCK card, repeat. A hand scanner emulating a keyboard ends its
// payload with enter, which is exactly the submit key.
type gateModel struct {
	svc   *workflow.Service
	input []rune

	status *workflow.GateStatus
	err    error
}

func newGateModel(svc *workflow.Service) gateModel {
	return gateModel{svc: svc}
}

func (m gateModel) Init() tea.Cmd {
	return nil
}

func (m gateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case gateCheckMsg:
		m.status = msg.status
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			id := strings.TrimSpace(string(m.input))
			m.input = nil
			if id == "" {
				return m, nil
			}
			return m, m.check(id)
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
			return m, nil
		case tea.KeyRunes, tea.KeySpace:
			m.input = append(m.input, msg.Runes...)
			return m, nil
		}
	}
	return m, nil
}

func (m gateModel) check(id string) tea.Cmd {
	return func() tea.Msg {
		status, err := m.svc.GateCheck(context.Background(), id)
		return gateCheckMsg{status: status, err: err}
	}
}

func (m gateModel) View() string {
	var b strings.Builder
	b.WriteString(gateTitleStyle.Render("Gate check") + "\n\n")
	b.WriteString(gateInputStyle.Render("ID: "+string(m.input)+"_") + "\n\n")

	switch {
	case m.err != nil && errorsIsNotFound(m.err):
		b.WriteString(gateBlockStyle.Render("BLOCK\nno such request") + "\n")
	case m.err != nil:
		b.WriteString(gateBlockStyle.Render("ERROR\n"+m.err.Error()) + "\n")
	case m.status != nil && m.status.Pass:
		b.WriteString(gatePassStyle.Render("PASS  "+string(m.status.Status)+"\n"+m.status.Summary) + "\n")
	case m.status != nil:
		b.WriteString(gateBlockStyle.Render("BLOCK  "+string(m.status.Status)+"\n"+m.status.Summary) + "\n")
	}

	b.WriteString("\n" + gateHintStyle.Render("scan or type a request id, enter to check, esc to quit"))
	return b.String()
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, db.ErrRequestNotFound)
}
