// Package transform converts loosely typed gateway payloads into the
// normalized display series of the model package. Every function here is
// total: missing or malformed fields fall back to defaults and nothing panics
// or returns an error.
package transform

import (
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finchat-dev/finchat/internal/gateway"
	"github.com/finchat-dev/finchat/internal/model"
)

// Coerce strips every rune that is not a digit, '-' or '.' and parses what is
// left. Anything that does not parse, or does not fit in a finite float64,
// yields 0.
func Coerce(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

func valueAt(values []gateway.Number, i int) float64 {
	if i >= len(values) {
		return 0
	}
	return Coerce(values[i].String())
}

// rank drops non-positive entries and stable-sorts the rest descending.
func rank(entries []model.SeriesEntry) []model.SeriesEntry {
	kept := make([]model.SeriesEntry, 0, len(entries))
	for _, e := range entries {
		if e.Value > 0 {
			kept = append(kept, e)
		}
	}
	slices.SortStableFunc(kept, func(a, b model.SeriesEntry) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})
	return kept
}

func newSeries(labels int, entries []model.SeriesEntry) model.SummarySeries {
	s := model.SummarySeries{Entries: entries}
	switch {
	case labels == 0:
		s.Empty = model.EmptyAbsent
	case len(entries) == 0:
		s.Empty = model.EmptyAllZero
	}
	return s
}

// ToSummarySeries normalizes the category breakdown. Colors cycle through the
// supplied palette by the label's position in the payload, so a category
// keeps its color when others drop out.
func ToSummarySeries(raw gateway.CategoryPie) model.SummarySeries {
	if len(raw.Labels) == 0 {
		return newSeries(0, nil)
	}
	entries := make([]model.SeriesEntry, len(raw.Labels))
	for i, label := range raw.Labels {
		color := model.DefaultColor
		if len(raw.Colors) > 0 {
			color = raw.Colors[i%len(raw.Colors)]
		}
		entries[i] = model.SeriesEntry{Label: label, Value: valueAt(raw.Values, i), Color: color}
	}
	return newSeries(len(raw.Labels), rank(entries))
}

// ToTrendSeries zips the monthly arrays up to the shortest one; a ragged tail
// is dropped.
func ToTrendSeries(raw gateway.MonthlyTrend) model.TrendSeries {
	n := min(len(raw.Months), len(raw.Income), len(raw.Expenses))
	t := model.TrendSeries{
		Months:   make([]string, n),
		Income:   make([]float64, n),
		Expenses: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		t.Months[i] = raw.Months[i]
		t.Income[i] = Coerce(raw.Income[i].String())
		t.Expenses[i] = Coerce(raw.Expenses[i].String())
	}
	return t
}

// ToRankedBarSeries coerces, ranks and keeps the first topN entries. topN <= 0
// keeps everything. An all-zero payload yields an empty series.
func ToRankedBarSeries(raw gateway.RankedBars, topN int) model.SummarySeries {
	if len(raw.Labels) == 0 {
		return newSeries(0, nil)
	}
	entries := make([]model.SeriesEntry, len(raw.Labels))
	for i, label := range raw.Labels {
		entries[i] = model.SeriesEntry{Label: label, Value: valueAt(raw.Amounts, i)}
	}
	ranked := rank(entries)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return newSeries(len(raw.Labels), ranked)
}

// DeriveNetPosition computes net savings locally; missing figures count as 0.
func DeriveNetPosition(raw gateway.IncomeVsExpenses) model.NetPosition {
	income := Coerce(raw.TotalIncome.String())
	expenses := Coerce(raw.TotalExpenses.String())
	return model.NetPosition{
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetSavings:    income - expenses,
	}
}

// FromLabelValues normalizes a /summary/* payload with the same ranking rules
// as the chart series.
func FromLabelValues(raw gateway.LabelValues) model.SummarySeries {
	if len(raw.Data) == 0 {
		return newSeries(0, nil)
	}
	entries := make([]model.SeriesEntry, len(raw.Data))
	for i, row := range raw.Data {
		entries[i] = model.SeriesEntry{Label: row.Label, Value: Coerce(row.Value.String())}
	}
	return newSeries(len(raw.Data), rank(entries))
}
