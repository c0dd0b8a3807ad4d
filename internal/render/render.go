// Package render draws dashboard state as styled terminal text.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/finchat-dev/finchat/internal/model"
)

// Messages shown in place of an empty view.
const (
	NoCategoryData = "No category spending data available."
	NoMonthlyData  = "No monthly data available."
	NoChartData    = "No data available for this chart."
	NoSpendingData = "No spending data available for this chart."
	NoBudgets      = "No budgets set yet."
	NoAlerts       = "All categories are within budget."
)

const (
	defaultBarWidth = 30
	swatch          = "■"
	barGlyph        = "█"
)

// Renderer formats amounts for one currency and locale.
type Renderer struct {
	Styles Styles

	symbol   string
	printer  *message.Printer
	caser    cases.Caser
	barWidth int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyles replaces the default styles.
func WithStyles(s Styles) Option {
	return func(r *Renderer) { r.Styles = s }
}

// WithBarWidth sets the width of the longest bar in a chart.
func WithBarWidth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.barWidth = n
		}
	}
}

// New creates a Renderer. An unparseable locale falls back to English.
func New(currencySymbol, locale string, opts ...Option) *Renderer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	r := &Renderer{
		Styles:   DefaultStyles(),
		symbol:   currencySymbol,
		printer:  message.NewPrinter(tag),
		caser:    cases.Title(tag),
		barWidth: defaultBarWidth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Amount formats v with the currency symbol and locale digit grouping.
func (r *Renderer) Amount(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + r.symbol + r.printer.Sprintf("%.2f", v)
}

// Percent formats a percentage with one decimal place.
func (r *Renderer) Percent(v float64) string {
	return r.printer.Sprintf("%.1f%%", v)
}

// Heading renders a section title in title case.
func (r *Renderer) Heading(title string) string {
	return r.Styles.Heading.Render(r.caser.String(title))
}

// NetPosition renders the income, expenses and net savings card.
func (r *Renderer) NetPosition(np model.NetPosition) string {
	net := r.Styles.Income
	if np.NetSavings < 0 {
		net = r.Styles.Expense
	}
	rows := [][2]string{
		{"Total income", r.Styles.Income.Render(r.Amount(np.TotalIncome))},
		{"Total expenses", r.Styles.Expense.Render(r.Amount(np.TotalExpenses))},
		{"Net savings", net.Render(r.Amount(np.NetSavings))},
	}
	return r.Styles.Card.Render(table(nil, toRows(rows)))
}

func toRows(pairs [][2]string) [][]string {
	out := make([][]string, len(pairs))
	for i, p := range pairs {
		out[i] = []string{p[0], p[1]}
	}
	return out
}

// Categories renders the category breakdown with color swatches and each
// category's share of the total.
func (r *Renderer) Categories(s model.SummarySeries) string {
	if !s.HasData() {
		return r.Styles.Muted.Render(NoCategoryData)
	}
	var total float64
	for _, e := range s.Entries {
		total += e.Value
	}
	rows := make([][]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		color := e.Color
		if color == "" {
			color = model.DefaultColor
		}
		mark := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(swatch)
		rows = append(rows, []string{
			mark + " " + e.Label,
			r.Amount(e.Value),
			r.Percent(e.Value / total * 100),
		})
	}
	return table([]string{"Category", "Spent", "Share"}, rows)
}

// Trend renders monthly income, expenses and net.
func (r *Renderer) Trend(t model.TrendSeries) string {
	if !t.HasData() {
		return r.Styles.Muted.Render(NoMonthlyData)
	}
	rows := make([][]string, 0, t.Len())
	for i, month := range t.Months {
		net := r.Styles.Income
		if t.Net(i) < 0 {
			net = r.Styles.Expense
		}
		rows = append(rows, []string{
			month,
			r.Amount(t.Income[i]),
			r.Amount(t.Expenses[i]),
			net.Render(r.Amount(t.Net(i))),
		})
	}
	return table([]string{"Month", "Income", "Expenses", "Net"}, rows)
}

// Bars renders s as a horizontal bar chart scaled to the largest value.
func (r *Renderer) Bars(s model.SummarySeries) string {
	switch s.Empty {
	case model.EmptyAbsent:
		return r.Styles.Muted.Render(NoChartData)
	case model.EmptyAllZero:
		return r.Styles.Muted.Render(NoSpendingData)
	}
	if !s.HasData() {
		return r.Styles.Muted.Render(NoChartData)
	}

	labelWidth := 0
	for _, e := range s.Entries {
		labelWidth = max(labelWidth, lipgloss.Width(e.Label))
	}
	maxValue := s.Max()

	var b strings.Builder
	for i, e := range s.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		n := barLength(e.Value, maxValue, r.barWidth)
		bar := r.Styles.Bar
		if e.Color != "" {
			bar = bar.Foreground(lipgloss.Color(e.Color))
		}
		fmt.Fprintf(&b, "%s  %s %s",
			padRight(e.Label, labelWidth),
			bar.Render(strings.Repeat(barGlyph, n)),
			r.Amount(e.Value))
	}
	return b.String()
}

// barLength scales value against maxValue; any positive value gets at least
// one cell.
func barLength(value, maxValue float64, width int) int {
	if maxValue <= 0 || value <= 0 {
		return 0
	}
	n := int(math.Round(value / maxValue * float64(width)))
	return min(max(n, 1), width)
}

// Budgets renders the budget table.
func (r *Renderer) Budgets(entries []model.BudgetEntry) string {
	if len(entries) == 0 {
		return r.Styles.Muted.Render(NoBudgets)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Category, r.Amount(e.MonthlyBudget.InexactFloat64())})
	}
	return table([]string{"Category", "Monthly budget"}, rows)
}

// Alerts renders categories that are over budget.
func (r *Renderer) Alerts(alerts []model.SpendingAlert) string {
	if len(alerts) == 0 {
		return r.Styles.Success.Render(NoAlerts)
	}
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, []string{
			r.Styles.Warning.Render(a.Category),
			r.Amount(a.Budget),
			r.Amount(a.Spent),
			r.Styles.Expense.Render(r.Amount(a.OverspendAmount)),
			r.Percent(a.OverspendPercent),
		})
	}
	return table([]string{"Category", "Budget", "Spent", "Over by", "Over %"}, rows)
}

// table lays out rows in left-aligned columns. Widths are measured on the
// rendered text so styled cells line up.
func table(header []string, rows [][]string) string {
	cols := len(header)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	var lines []string
	line := func(row []string) string {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = padRight(cell, widths[i])
		}
		return strings.Join(cells, "  ")
	}
	if len(header) > 0 {
		lines = append(lines, line(header))
		sep := make([]string, len(header))
		for i := range header {
			sep[i] = strings.Repeat("-", widths[i])
		}
		lines = append(lines, strings.Join(sep, "  "))
	}
	for _, row := range rows {
		lines = append(lines, line(row))
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
