package model

import "github.com/shopspring/decimal"

// BudgetEntry is a monthly budget for one category. Category is the unique key.
type BudgetEntry struct {
	Category      string
	MonthlyBudget decimal.Decimal
}

// SpendingAlert reports a category whose spending this month exceeds its budget.
type SpendingAlert struct {
	Category         string
	Budget           float64
	Spent            float64
	OverspendAmount  float64
	OverspendPercent float64
}
