package report

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9e64")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff")).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))
)

// Table renders the records as a bordered terminal table. Plain output
// carries no ANSI styling.
func Table(rows []Record, plain bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("circuit", "rank", "bitstring", "count", "probability")
	for _, r := range rows {
		t.Row(r.Circuit, strconv.Itoa(r.Rank), r.Bitstring, strconv.Itoa(r.Count), fmt.Sprintf("%.4f", r.Probability))
	}
	if plain {
		t.StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
		return t.String()
	}
	t.BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return labelStyle
			}
			return cellStyle
		})
	return t.String()
}
