package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"FundReview/internal/model"
	"FundReview/internal/recorder"
)

// FormatFundTable formats the fund list for a Telegram message.
func FormatFundTable(funds []model.Fund) string {
	if len(funds) == 0 {
		return "No funds yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Fund Review Tracker</b> | %d funds\n", len(funds)))
	for _, f := range funds {
		b.WriteString("\n")
		writeFund(&b, &f)
	}
	return b.String()
}

func writeFund(b *strings.Builder, f *model.Fund) {
	b.WriteString(fmt.Sprintf("<b>#%d %s</b> · assigned %s\n",
		f.ID, html.EscapeString(f.Name), f.AssignedDate.Format(model.ShortLayout)))
	parts := make([]string, 0, model.NumSteps)
	for _, s := range model.Steps {
		st := f.Step(s)
		mark := "⬜"
		if st.Done {
			mark = "✅"
			if s == model.StepRejected {
				mark = "❌"
			}
		}
		parts = append(parts, fmt.Sprintf("%s %s", mark, html.EscapeString(model.PillText(s, st))))
	}
	b.WriteString(strings.Join(parts, " · "))
	b.WriteString("\n")
}

// FormatDigest summarises funds still in review. Funds with no activity for
// staleDays or more are listed first under a separate heading.
func FormatDigest(funds []model.Fund, today time.Time, staleDays int) string {
	today = model.Day(today)
	var stale, active []model.Fund
	for _, f := range funds {
		if f.Rejected() {
			continue
		}
		idle := int(today.Sub(model.Day(f.LastActivity())).Hours() / 24)
		if staleDays > 0 && idle >= staleDays {
			stale = append(stale, f)
		} else {
			active = append(active, f)
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Review digest</b> | %s\n", today.Format(model.DateLayout)))
	if len(stale)+len(active) == 0 {
		b.WriteString("\nNo funds in review ✅")
		return b.String()
	}
	if len(stale) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ <b>Idle for %d+ days</b>\n", staleDays))
		for _, f := range stale {
			writeDigestLine(&b, &f)
		}
	}
	if len(active) > 0 {
		b.WriteString("\n<b>In progress</b>\n")
		for _, f := range active {
			writeDigestLine(&b, &f)
		}
	}
	return b.String()
}

func writeDigestLine(b *strings.Builder, f *model.Fund) {
	next := "all steps done"
	for _, s := range model.Steps {
		if !f.Step(s).Done {
			next = "next: " + s.Label()
			break
		}
	}
	b.WriteString(fmt.Sprintf("• #%d %s (%s, since %s)\n",
		f.ID, html.EscapeString(f.Name), next, f.LastActivity().Format(model.ShortLayout)))
}

// FormatHistory lists recorded changes of one fund.
func FormatHistory(fundID int64, events []recorder.FundEvent) string {
	if len(events) == 0 {
		return fmt.Sprintf("No history for fund #%d.", fundID)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕑 <b>History of #%d</b>\n", fundID))
	for _, e := range events {
		line := fmt.Sprintf("%s %s", e.Timestamp.Format("2006-01-02 15:04"), e.Action)
		if e.Step != "" {
			line += " " + e.Step
		}
		if e.Note != "" {
			line += " (" + html.EscapeString(e.Note) + ")"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
