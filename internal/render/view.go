package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/finchat-dev/finchat/internal/dashboard"
	"github.com/finchat-dev/finchat/internal/model"
	"github.com/finchat-dev/finchat/internal/upload"
)

const progressWidth = 20

// Dashboard renders a full snapshot together with the budget table.
func (r *Renderer) Dashboard(snap dashboard.Snapshot, budgets []model.BudgetEntry) string {
	sections := []string{
		r.Styles.Title.Render("Finance dashboard"),
		r.Styles.Muted.Render("Updated " + snap.RefreshedAt.Format("2006-01-02 15:04:05")),
		r.NetPosition(snap.Net),
		r.section("spending by category", r.Categories(snap.Categories)),
		r.section("monthly income and expenses", r.Trend(snap.Trend)),
		r.section("top merchants by total spending", r.Bars(snap.TopByTotal)),
		r.section("top merchants by single payment", r.Bars(snap.TopBySingle)),
		r.section("monthly budgets", r.Budgets(budgets)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Summary renders the plain /summary views.
func (r *Renderer) Summary(snap dashboard.Snapshot) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		r.section("by category", r.Bars(snap.ByCategory)),
		r.section("top merchants", r.Bars(snap.TopMerchants)),
		r.section("monthly totals", r.Bars(snap.MonthlyTotals)),
	)
}

func (r *Renderer) section(title, body string) string {
	return "\n" + r.Heading(title) + "\n" + body
}

// Upload renders one line describing an upload session.
func (r *Renderer) Upload(s upload.Session) string {
	switch s.Phase {
	case upload.PhaseIdle:
		if s.File == "" {
			return r.Styles.Muted.Render("No file selected.")
		}
		return fmt.Sprintf("%s ready to upload", s.File)
	case upload.PhaseInFlight:
		if !s.PercentKnown {
			return fmt.Sprintf("Uploading %s...", s.File)
		}
		filled := s.Percent * progressWidth / 100
		bar := r.Styles.Progress.Render(strings.Repeat(barGlyph, filled)) +
			r.Styles.Muted.Render(strings.Repeat("░", progressWidth-filled))
		return fmt.Sprintf("Uploading %s [%s] %d%%", s.File, bar, s.Percent)
	case upload.PhaseSucceeded:
		return r.Styles.Success.Render(fmt.Sprintf("Uploaded %s: %d rows imported.", s.File, s.Rows))
	case upload.PhaseFailed:
		return r.Styles.Failure.Render(s.ErrorMessage)
	}
	return s.Phase.String()
}
