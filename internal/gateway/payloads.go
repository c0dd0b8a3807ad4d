package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finchat-dev/finchat/internal/model"
)

// Number is a loosely typed JSON scalar. The gateway sends amounts either as
// numbers or as formatted strings ("₹1,200"); Number keeps the raw text and
// leaves interpretation to the transform layer. Decoding never fails: null,
// booleans, objects and arrays become the empty string.
type Number string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*n = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = ""
			return nil
		}
		*n = Number(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// Normalize exponent forms such as 1e+21 to plain digits.
		if d, err := decimal.NewFromString(string(data)); err == nil {
			*n = Number(d.String())
		} else {
			*n = Number(data)
		}
	default:
		*n = ""
	}
	return nil
}

// String returns the raw text.
func (n Number) String() string { return string(n) }

// CategoryPie is the /visualization/category_pie payload.
type CategoryPie struct {
	Labels []string `json:"labels"`
	Values []Number `json:"values"`
	Colors []string `json:"colors"`
}

// MonthlyTrend is the /visualization/monthly_trend payload.
type MonthlyTrend struct {
	Months   []string `json:"months"`
	Income   []Number `json:"income"`
	Expenses []Number `json:"expenses"`
}

// RankedBars is the payload of the top-merchant visualization endpoints.
type RankedBars struct {
	Labels  []string `json:"labels"`
	Amounts []Number `json:"amounts"`
}

// IncomeVsExpenses is the /visualization/income_vs_expenses payload. The
// server's netSavings is deliberately not decoded.
type IncomeVsExpenses struct {
	TotalIncome   Number `json:"totalIncome"`
	TotalExpenses Number `json:"totalExpenses"`
}

// LabelValue is one row of a /summary/* payload.
type LabelValue struct {
	Label string `json:"label"`
	Value Number `json:"value"`
}

// LabelValues is the /summary/* payload.
type LabelValues struct {
	Data []LabelValue `json:"data"`
}

// UploadResult is the /upload_csv response body.
type UploadResult struct {
	OK    bool   `json:"ok"`
	Rows  int    `json:"rows"`
	Error string `json:"error"`
}

// ChatResponse is the /chat response body. Servers disagree on the field
// name, so all three are accepted.
type ChatResponse struct {
	Answer   string `json:"answer"`
	Response string `json:"response"`
	Message  string `json:"message"`
}

// NoAnswer is shown when the chat response carries no text.
const NoAnswer = "No answer."

// Text returns the first non-empty of answer, response and message.
func (r ChatResponse) Text() string {
	for _, s := range []string{r.Answer, r.Response, r.Message} {
		if s != "" {
			return s
		}
	}
	return NoAnswer
}

type spendingAlert struct {
	Category         string  `json:"category"`
	Budget           float64 `json:"budget"`
	Spent            float64 `json:"spent"`
	OverspendAmount  float64 `json:"overspend_amount"`
	OverspendPercent float64 `json:"overspend_percent"`
}

// decodeBudgets accepts either a bare array or {"budgets": [...]}, with each
// record encoded as {"category", "monthly_budget"} or as a [category, amount]
// tuple. Records that cannot be read are skipped.
func decodeBudgets(data []byte) ([]model.BudgetEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var records []json.RawMessage
	if data[0] == '{' {
		var wrapped struct {
			Budgets []json.RawMessage `json:"budgets"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		records = wrapped.Budgets
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	entries := make([]model.BudgetEntry, 0, len(records))
	for _, rec := range records {
		entry, ok := decodeBudgetRecord(rec)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeBudgetRecord(rec json.RawMessage) (model.BudgetEntry, bool) {
	rec = bytes.TrimSpace(rec)
	if len(rec) == 0 {
		return model.BudgetEntry{}, false
	}

	var category string
	var amount Number
	switch rec[0] {
	case '{':
		var named struct {
			Category      string `json:"category"`
			MonthlyBudget Number `json:"monthly_budget"`
		}
		if err := json.Unmarshal(rec, &named); err != nil {
			return model.BudgetEntry{}, false
		}
		category, amount = named.Category, named.MonthlyBudget
	case '[':
		var tuple []json.RawMessage
		if err := json.Unmarshal(rec, &tuple); err != nil || len(tuple) < 2 {
			return model.BudgetEntry{}, false
		}
		if err := json.Unmarshal(tuple[0], &category); err != nil {
			return model.BudgetEntry{}, false
		}
		_ = amount.UnmarshalJSON(tuple[1])
	default:
		return model.BudgetEntry{}, false
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return model.BudgetEntry{}, false
	}
	value, err := decimal.NewFromString(amount.String())
	if err != nil {
		return model.BudgetEntry{}, false
	}
	return model.BudgetEntry{Category: category, MonthlyBudget: value}, true
}

func limitQuery(limit int) string {
	return "?limit=" + strconv.Itoa(limit)
}
