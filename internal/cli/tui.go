package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/wallyup/pkg/upgrade"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ReviewModel - Interactive change selection
// =============================================================================

// ReviewModel is the bubbletea model for choosing which planned changes to
// apply. Every change starts selected.
type ReviewModel struct {
	Changes   []upgrade.Change
	Chosen    []bool
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
}

// NewReviewModel creates a review model over changes.
func NewReviewModel(changes []upgrade.Change) ReviewModel {
	chosen := make([]bool, len(changes))
	for i := range chosen {
		chosen[i] = true
	}
	return ReviewModel{
		Changes: changes,
		Chosen:  chosen,
		Height:  15,
	}
}

// Selected returns the chosen changes, or nil when the review was aborted.
func (m ReviewModel) Selected() []upgrade.Change {
	if !m.Confirmed {
		return nil
	}
	var out []upgrade.Change
	for i, ch := range m.Changes {
		if m.Chosen[i] {
			out = append(out, ch)
		}
	}
	return out
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Changes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Changes) > 0 {
				m.Chosen = toggled(m.Chosen, m.Cursor)
			}
		case "a":
			all := !allChosen(m.Chosen)
			chosen := make([]bool, len(m.Chosen))
			for i := range chosen {
				chosen[i] = all
			}
			m.Chosen = chosen
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Review Upgrades"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ apply  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Changes))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		ch := m.Changes[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Chosen[i] {
			box = "[x]"
		}
		rows = append(rows, []string{cursor + box, ch.Alias, versionOf(ch.From), versionOf(ch.To), bumpKind(ch.From, ch.To)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Dependency", "From", "To", "Bump").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Changes) {
				return lipgloss.NewStyle()
			}
			isCurrent := actualIdx == m.Cursor

			base := lipgloss.NewStyle()
			if !m.Chosen[actualIdx] {
				base = base.Foreground(colorDim)
			} else if col == 3 {
				base = base.Foreground(colorGreen)
			} else if col == 4 {
				base = base.Foreground(bumpColor(bumpKind(m.Changes[actualIdx].From, m.Changes[actualIdx].To)))
			}
			if isCurrent {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d of %d selected", countChosen(m.Chosen), len(m.Changes))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// toggled returns a copy of chosen with index i flipped; models are values
// and must not share their selection slice.
func toggled(chosen []bool, i int) []bool {
	out := make([]bool, len(chosen))
	copy(out, chosen)
	out[i] = !out[i]
	return out
}

func allChosen(chosen []bool) bool {
	for _, c := range chosen {
		if !c {
			return false
		}
	}
	return true
}

func countChosen(chosen []bool) int {
	n := 0
	for _, c := range chosen {
		if c {
			n++
		}
	}
	return n
}
