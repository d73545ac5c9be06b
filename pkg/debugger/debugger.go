// Package debugger implements an interactive terminal UI for single
// stepping an LS-8 program: a scrolling memory dump alongside live
// register, flag, and cycle-count state.
package debugger

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/ls8/ls8/pkg/cpu"
)

const bytesPerRow = 16

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	pcStyle     = lipgloss.NewStyle().Reverse(true)
	flagOnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

type model struct {
	machine *cpu.CPU
	err     error
	stepped int
}

// Run opens the debugger over machine, which must already have a program
// loaded. It blocks until the user quits or the program halts and the
// user dismisses the final view.
func Run(machine *cpu.CPU) error {
	m, err := tea.NewProgram(model{machine: machine}).Run()
	if err != nil {
		return err
	}
	if fm, ok := m.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "n":
			if m.machine.Halted() {
				return m, nil
			}
			if err := m.machine.Step(); err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.stepped++
		}
	}
	return m, nil
}

func (m model) renderMemoryRow(start int) string {
	s := fmt.Sprintf("%02x | ", start)
	for i := 0; i < bytesPerRow; i++ {
		addr := byte(start + i)
		b := m.machine.Memory(addr)
		cell := fmt.Sprintf("%02x ", b)
		if addr == m.machine.ProgramCounter() {
			cell = pcStyle.Render(fmt.Sprintf("%02x", b)) + " "
		}
		s += cell
	}
	return s
}

func (m model) memoryView() string {
	rows := []string{headerStyle.Render("addr | " + strings.Repeat("xx  ", bytesPerRow))}
	for start := 0; start < 256; start += bytesPerRow {
		rows = append(rows, m.renderMemoryRow(start))
	}
	return strings.Join(rows, "\n")
}

func (m model) statusView() string {
	snap := m.machine.Snapshot()

	flag := func(on bool, name string) string {
		if on {
			return flagOnStyle.Render(name)
		}
		return "."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PC:  0x%02x\n", snap.ProgramCounter)
	fmt.Fprintf(&b, "IR:  %s\n", m.machine.Disassemble(snap.ProgramCounter))
	for i, r := range snap.Registers {
		fmt.Fprintf(&b, "R%d:  0x%02x\n", i, r)
	}
	fmt.Fprintf(&b, "LGE: %s %s %s\n",
		flag(snap.Flags.Less, "L"), flag(snap.Flags.Greater, "G"), flag(snap.Flags.Equal, "E"))
	fmt.Fprintf(&b, "IE:  %v\n", snap.InterruptsEnabled)
	fmt.Fprintf(&b, "halted: %v\n", snap.Halted)
	fmt.Fprintf(&b, "cycles: %d\n", snap.Cycles)
	return b.String()
}

func (m model) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.memoryView(), "  ", m.statusView())
	footer := "space/n: step   q: quit"
	if m.err != nil {
		footer = fmt.Sprintf("error: %s\n%s\n%s", m.err, spew.Sdump(m.machine.Snapshot().Registers), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, "", footer)
}
