package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/wallyup/pkg/resolve"
	"github.com/matzehuels/wallyup/pkg/upgrade"
	"github.com/matzehuels/wallyup/pkg/version"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// newTable returns a table in the CLI's border style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// changeTable renders planned changes, coloring the bump column by size.
func changeTable(changes []upgrade.Change) string {
	rows := make([][]string, len(changes))
	for i, ch := range changes {
		rows[i] = []string{ch.Alias, ch.Section, versionOf(ch.From), versionOf(ch.To), bumpKind(ch.From, ch.To)}
	}

	return newTable("Dependency", "Section", "From", "To", "Bump").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			switch col {
			case 1, 2:
				return tableCellStyle.Foreground(colorDim)
			case 3:
				return tableCellStyle.Foreground(colorGreen)
			case 4:
				if row >= 0 && row < len(rows) {
					return tableCellStyle.Foreground(bumpColor(rows[row][4]))
				}
			}
			return tableCellStyle
		}).
		Render()
}

// versionRow is one line of the versions listing.
type versionRow struct {
	Version    string
	Realm      string
	License    string
	Prerelease bool
	Eligible   bool
}

// versionsTable renders published versions. Ineligible rows are dimmed.
func versionsTable(rows []versionRow) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		note := ""
		switch {
		case r.Prerelease:
			note = "pre-release"
		case r.Eligible:
			note = iconSuccess
		}
		cells[i] = []string{r.Version, r.Realm, r.License, note}
	}

	return newTable("Version", "Realm", "License", "").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if row < 0 || row >= len(rows) {
				return tableCellStyle
			}
			r := rows[row]
			switch {
			case r.Prerelease:
				return tableCellStyle.Foreground(colorYellow)
			case !r.Eligible:
				return tableCellStyle.Foreground(colorDim)
			case col == 0 || col == 3:
				return tableCellStyle.Foreground(colorGreen)
			}
			return tableCellStyle
		}).
		Render()
}

// versionOf returns the version part of a reference string.
func versionOf(ref string) string {
	r, err := resolve.ParseReference(ref)
	if err != nil || r.Version == "" {
		return ref
	}
	return r.Version
}

// bumpKind names the most significant component that differs between two
// references, or "" when either is unparsable.
func bumpKind(from, to string) string {
	a, err := version.Parse(versionOf(from))
	if err != nil {
		return ""
	}
	b, err := version.Parse(versionOf(to))
	if err != nil {
		return ""
	}
	switch {
	case a.Major != b.Major:
		return string(version.FocusMajor)
	case a.Minor != b.Minor:
		return string(version.FocusMinor)
	case a.Patch != b.Patch:
		return string(version.FocusPatch)
	}
	return ""
}

func bumpColor(kind string) lipgloss.TerminalColor {
	switch kind {
	case string(version.FocusMajor):
		return colorRed
	case string(version.FocusMinor):
		return colorYellow
	}
	return colorGreen
}
