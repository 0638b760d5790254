package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// ComponentRow is one line of the component browser.
type ComponentRow struct {
	Component  string
	Deps       int // distinct direct dependencies
	Dependents int // distinct components depending on this one
}

// ComponentListModel is the bubbletea model for interactive component
// selection.
type ComponentListModel struct {
	Rows     []ComponentRow
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewComponentListModel creates a new component list model.
func NewComponentListModel(rows []ComponentRow) ComponentListModel {
	return ComponentListModel{
		Rows:   rows,
		Height: 15,
	}
}

func (m ComponentListModel) Init() tea.Cmd {
	return nil
}

func (m ComponentListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Rows) == 0 {
				return m, nil
			}
			m.Selected = m.Rows[m.Cursor].Component
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ComponentListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Component"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ resolve  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			r.Component,
			strconv.Itoa(r.Deps),
			strconv.Itoa(r.Dependents),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Component", "Deps", "Dependents").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			r := m.Rows[actualIdx]

			base := lipgloss.NewStyle()
			if actualIdx == m.Cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			// Leaves build with nothing underneath them.
			if r.Deps == 0 {
				return base.Foreground(colorDim)
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}
