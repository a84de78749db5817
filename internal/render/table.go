// Package render draws the fund checklist as a terminal table.
package render

import (
	"fmt"
	"strings"

	"FundReview/internal/model"
	"FundReview/internal/recorder"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	pendingStyle = cellStyle.Foreground(lipgloss.Color("#1D4ED8")).Bold(true)
	doneStyle    = cellStyle.Foreground(lipgloss.Color("#6B7280"))
	rejStyle     = cellStyle.Foreground(lipgloss.Color("#EF4444"))
)

const firstStepCol = 3

// Funds renders funds in display order. The last column marks funds that
// can be deleted.
func Funds(funds []model.Fund) string {
	if len(funds) == 0 {
		return "No funds yet."
	}

	headers := []string{"#", "Fund", "Assigned"}
	for _, s := range model.Steps {
		headers = append(headers, s.Label())
	}
	headers = append(headers, "")

	rows := make([][]string, 0, len(funds))
	for _, f := range funds {
		row := []string{fmt.Sprint(f.ID), f.Name, f.AssignedDate.Format(model.ShortLayout)}
		for _, s := range model.Steps {
			row = append(row, model.PillText(s, f.Step(s)))
		}
		del := ""
		if f.Rejected() {
			del = "🗑"
		}
		rows = append(rows, append(row, del))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			stepIdx := col - firstStepCol
			if row < 0 || row >= len(funds) || stepIdx < 0 || stepIdx >= model.NumSteps {
				return cellStyle
			}
			st := funds[row].Steps[stepIdx]
			switch {
			case !st.Done:
				return pendingStyle
			case model.Step(stepIdx) == model.StepRejected:
				return rejStyle
			default:
				return doneStyle
			}
		})
	return t.String()
}

// History renders recorded events of a fund, newest first.
func History(fundID int64, events []recorder.FundEvent) string {
	if len(events) == 0 {
		return fmt.Sprintf("No history for fund #%d.", fundID)
	}
	var b strings.Builder
	for _, e := range events {
		fmt.Fprintf(&b, "%s  %-11s %-5s %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Action, e.Step, e.Note)
	}
	return b.String()
}
