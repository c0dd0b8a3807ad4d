package model

// DefaultColor is used for series entries when the gateway supplies no palette.
const DefaultColor = "#cccccc"

// EmptyReason explains why a series has no entries.
type EmptyReason int

const (
	NotEmpty     EmptyReason = iota
	EmptyAbsent              // payload carried no labels
	EmptyAllZero             // every value coerced to zero or less
)

// SeriesEntry is one (label, value) pair of a SummarySeries.
type SeriesEntry struct {
	Label string
	Value float64 // finite, > 0
	Color string  // empty for series without a palette
}

// SummarySeries is an ordered, immutable snapshot of one aggregation
// dimension (category totals, merchant totals, ...). Entries are sorted
// descending by value.
type SummarySeries struct {
	Entries []SeriesEntry
	Empty   EmptyReason
}

// Len returns the number of entries.
func (s SummarySeries) Len() int { return len(s.Entries) }

// HasData reports whether the series has anything to render.
func (s SummarySeries) HasData() bool { return len(s.Entries) > 0 }

// Max returns the largest value, or 0 for an empty series.
func (s SummarySeries) Max() float64 {
	if len(s.Entries) == 0 {
		return 0
	}
	// Entries are sorted descending.
	return s.Entries[0].Value
}

// TrendSeries holds index-aligned monthly income and expenses.
type TrendSeries struct {
	Months   []string
	Income   []float64
	Expenses []float64
}

// Len returns the number of months.
func (t TrendSeries) Len() int { return len(t.Months) }

// HasData reports whether any month is present.
func (t TrendSeries) HasData() bool { return len(t.Months) > 0 }

// Net returns income minus expenses for month i.
func (t TrendSeries) Net(i int) float64 {
	return t.Income[i] - t.Expenses[i]
}

// NetSeries returns the net figure for every month, computed on each call.
func (t TrendSeries) NetSeries() []float64 {
	net := make([]float64, len(t.Months))
	for i := range t.Months {
		net[i] = t.Net(i)
	}
	return net
}

// NetPosition is the income/expense overview. NetSavings is always derived
// locally from the other two figures.
type NetPosition struct {
	TotalIncome   float64
	TotalExpenses float64
	NetSavings    float64
}
