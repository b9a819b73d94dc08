package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTableAlignsWideRunes(t *testing.T) {
	var out strings.Builder
	err := writeTable(&out,
		[]string{"ID", "COMPANY"},
		[][]string{
			{"REQ_1", "한진물류"},
			{"REQ_2", "DL"},
		},
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	// The Korean name is 8 display columns wide, so the narrow row pads to it.
	assert.Equal(t, strings.Index(lines[1], "한진물류"), strings.Index(lines[2], "DL"))
}

func TestStripANSI(t *testing.T) {
	styled := "\x1b[32mAPPROVED\x1b[0m"
	assert.Equal(t, "APPROVED", stripANSI(styled))
	assert.Equal(t, "plain", stripANSI("plain"))
}

func TestGateModelInput(t *testing.T) {
	m := newGateModel(nil)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("REQ_1")})
	m = next.(gateModel)
	assert.Equal(t, "REQ_1", string(m.input))

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = next.(gateModel)
	assert.Equal(t, "REQ_", string(m.input))

	// Enter with a blank buffer neither crashes nor issues a command.
	m.input = nil
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(gateModel)
	assert.Nil(t, cmd)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotNil(t, cmd)
}
