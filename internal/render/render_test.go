package render

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchat-dev/finchat/internal/dashboard"
	"github.com/finchat-dev/finchat/internal/model"
	"github.com/finchat-dev/finchat/internal/upload"
)

func newTestRenderer(opts ...Option) *Renderer {
	return New("₹", "en", opts...)
}

func TestAmount(t *testing.T) {
	r := newTestRenderer()
	assert.Equal(t, "₹1,234.50", r.Amount(1234.5))
	assert.Equal(t, "₹0.00", r.Amount(0))
	assert.Equal(t, "-₹300.00", r.Amount(-300))

	usd := New("$", "not a locale")
	assert.Equal(t, "$12.00", usd.Amount(12))
}

func TestNetPosition(t *testing.T) {
	out := newTestRenderer().NetPosition(model.NetPosition{TotalIncome: 1000, TotalExpenses: 1200, NetSavings: -200})
	assert.Contains(t, out, "Total income")
	assert.Contains(t, out, "₹1,000.00")
	assert.Contains(t, out, "₹1,200.00")
	assert.Contains(t, out, "Net savings")
	assert.Contains(t, out, "-₹200.00")
}

func TestCategories(t *testing.T) {
	r := newTestRenderer()
	assert.Equal(t, NoCategoryData, r.Categories(model.SummarySeries{Empty: model.EmptyAbsent}))

	out := r.Categories(model.SummarySeries{Entries: []model.SeriesEntry{
		{Label: "Food", Value: 300, Color: "#FF6384"},
		{Label: "Bills", Value: 100},
	}})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Category")
	assert.Contains(t, lines[2], "Food")
	assert.Contains(t, lines[2], "₹300.00")
	assert.Contains(t, lines[2], "75.0%")
	assert.Contains(t, lines[3], "Bills")
	assert.Contains(t, lines[3], "25.0%")
}

func TestTrend(t *testing.T) {
	r := newTestRenderer()
	assert.Equal(t, NoMonthlyData, r.Trend(model.TrendSeries{}))

	out := r.Trend(model.TrendSeries{
		Months:   []string{"Jan", "Feb"},
		Income:   []float64{1000, 500},
		Expenses: []float64{400, 800},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "Jan")
	assert.Contains(t, lines[2], "₹600.00")
	assert.Contains(t, lines[3], "Feb")
	assert.Contains(t, lines[3], "-₹300.00")
}

func TestBars(t *testing.T) {
	r := newTestRenderer(WithBarWidth(10))
	assert.Equal(t, NoChartData, r.Bars(model.SummarySeries{Empty: model.EmptyAbsent}))
	assert.Equal(t, NoSpendingData, r.Bars(model.SummarySeries{Empty: model.EmptyAllZero}))

	out := r.Bars(model.SummarySeries{Entries: []model.SeriesEntry{
		{Label: "Rent", Value: 100},
		{Label: "Cafe", Value: 50},
		{Label: "Gum", Value: 0.1},
	}})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, 10, strings.Count(lines[0], barGlyph))
	assert.Equal(t, 5, strings.Count(lines[1], barGlyph))
	assert.Equal(t, 1, strings.Count(lines[2], barGlyph))
	assert.Contains(t, lines[1], "₹50.00")
}

func TestBarLength(t *testing.T) {
	assert.Equal(t, 0, barLength(0, 100, 30))
	assert.Equal(t, 0, barLength(10, 0, 30))
	assert.Equal(t, 30, barLength(100, 100, 30))
	assert.Equal(t, 15, barLength(50, 100, 30))
	assert.Equal(t, 1, barLength(0.001, 100, 30))
}

func TestBudgetsAndAlerts(t *testing.T) {
	r := newTestRenderer()
	assert.Equal(t, NoBudgets, r.Budgets(nil))
	assert.Equal(t, NoAlerts, r.Alerts(nil))

	out := r.Budgets([]model.BudgetEntry{{Category: "Food", MonthlyBudget: decimal.NewFromInt(5000)}})
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "₹5,000.00")

	out = r.Alerts([]model.SpendingAlert{{Category: "Food", Budget: 100, Spent: 150, OverspendAmount: 50, OverspendPercent: 50}})
	assert.Contains(t, out, "Over by")
	assert.Contains(t, out, "₹150.00")
	assert.Contains(t, out, "50.0%")
}

func TestUpload(t *testing.T) {
	r := newTestRenderer()
	tests := []struct {
		session upload.Session
		want    []string
	}{
		{upload.Session{}, []string{"No file selected."}},
		{upload.Session{File: "a.csv"}, []string{"a.csv ready to upload"}},
		{upload.Session{File: "a.csv", Phase: upload.PhaseInFlight}, []string{"Uploading a.csv..."}},
		{upload.Session{File: "a.csv", Phase: upload.PhaseInFlight, Percent: 50, PercentKnown: true}, []string{"Uploading a.csv", "50%"}},
		{upload.Session{File: "a.csv", Phase: upload.PhaseSucceeded, Rows: 12}, []string{"12 rows imported"}},
		{upload.Session{File: "a.csv", Phase: upload.PhaseFailed, ErrorMessage: "Upload failed: Bad Request"}, []string{"Upload failed: Bad Request"}},
	}
	for _, tt := range tests {
		out := r.Upload(tt.session)
		for _, want := range tt.want {
			assert.Contains(t, out, want, "phase %s", tt.session.Phase)
		}
	}
}

func TestDashboard(t *testing.T) {
	snap := dashboard.Snapshot{
		Categories:  model.SummarySeries{Entries: []model.SeriesEntry{{Label: "Food", Value: 10, Color: "#FF6384"}}},
		Trend:       model.TrendSeries{},
		TopByTotal:  model.SummarySeries{Empty: model.EmptyAllZero},
		TopBySingle: model.SummarySeries{Empty: model.EmptyAbsent},
		RefreshedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	out := newTestRenderer().Dashboard(snap, nil)
	assert.Contains(t, out, "Updated 2025-03-01 09:30:00")
	assert.Contains(t, out, "Spending By Category")
	assert.Contains(t, out, NoMonthlyData)
	assert.Contains(t, out, NoSpendingData)
	assert.Contains(t, out, NoChartData)
	assert.Contains(t, out, NoBudgets)

	out = newTestRenderer().Summary(dashboard.Snapshot{})
	assert.Equal(t, 3, strings.Count(out, NoChartData))
}
