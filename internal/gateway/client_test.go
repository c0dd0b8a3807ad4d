package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL + "/")
	c.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGet_CacheBusting(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/visualization/top_merchants_by_total_spending", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("limit"))
		assert.Equal(t, "1700000000123", r.URL.Query().Get("_"))
		assert.Equal(t, "no-cache, no-store, must-revalidate", r.Header.Get("Cache-Control"))
		assert.Equal(t, "no-cache", r.Header.Get("Pragma"))
		assert.Equal(t, "0", r.Header.Get("Expires"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, map[string]any{"labels": []string{"A"}, "amounts": []any{"₹10", 5}})
	})

	got, err := c.TopMerchantsByTotal(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got.Labels)
	assert.Equal(t, []Number{"₹10", "5"}, got.Amounts)
}

func TestPost_NotCacheBusted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/budgets", r.URL.Path)
		assert.Equal(t, "Eating Out", r.URL.Query().Get("category"))
		assert.Equal(t, "5000.5", r.URL.Query().Get("monthly_budget"))
		assert.False(t, r.URL.Query().Has("_"))
		assert.Empty(t, r.Header.Get("Pragma"))
		writeJSON(w, map[string]any{"ok": true})
	})

	err := c.SetBudget(context.Background(), "Eating Out", decimal.RequireFromString("5000.50"))
	require.NoError(t, err)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.CategoryPie(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.Contains(t, err.Error(), "HTTP error! status: 503")
}

func TestNonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	})

	got, err := c.MonthlyTrend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MonthlyTrend{}, got)
}

func TestNumber_Tolerant(t *testing.T) {
	var pie CategoryPie
	err := json.Unmarshal([]byte(`{"labels":["a","b","c","d","e"],"values":[12.5,"₹1,000",null,true,1e3]}`), &pie)
	require.NoError(t, err)
	assert.Equal(t, []Number{"12.5", "₹1,000", "", "", "1000"}, pie.Values)
}

func TestIncomeVsExpenses_FailureIsZero(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Equal(t, IncomeVsExpenses{}, c.IncomeVsExpenses(context.Background()))
}

func TestListBudgets_Encodings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"array of objects", `[{"category":"Food","monthly_budget":5000},{"category":"Bills","monthly_budget":"1200.5"}]`},
		{"wrapped", `{"budgets":[{"category":"Food","monthly_budget":5000},{"category":"Bills","monthly_budget":1200.5}]}`},
		{"tuples", `[["Food",5000],["Bills","1200.5"]]`},
		{"mixed with junk", `[["Food",5000],42,{"category":"","monthly_budget":1},{"category":"Bills","monthly_budget":1200.5},["Broken"]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := c.ListBudgets(context.Background())
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "Food", got[0].Category)
			assert.Equal(t, "5000", got[0].MonthlyBudget.String())
			assert.Equal(t, "Bills", got[1].Category)
			assert.Equal(t, "1200.5", got[1].MonthlyBudget.String())
		})
	}
}

func TestDeleteBudget_EscapesCategory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/budgets/Food%20%26%20Drink", r.URL.EscapedPath())
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.DeleteBudget(context.Background(), "Food & Drink"))
}

func TestEscapeSegment(t *testing.T) {
	tests := map[string]string{
		"Food":         "Food",
		"Food & Drink": "Food%20%26%20Drink",
		"a+b/c?d":      "a%2Bb%2Fc%3Fd",
		"Café":         "Caf%C3%A9",
	}
	for in, want := range tests {
		assert.Equal(t, want, escapeSegment(in), "escapeSegment(%q)", in)
	}
}

func TestWithTimeout_CopiesHTTPClient(t *testing.T) {
	shared := &http.Client{}
	c := NewClient("http://localhost:8000", WithHTTPClient(shared), WithTimeout(3*time.Second))

	assert.Equal(t, time.Duration(0), shared.Timeout, "shared client must not be modified")
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	assert.NotSame(t, shared, c.httpClient)
}

func TestChat(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"answer":"A","response":"R","message":"M"}`, "A"},
		{`{"answer":"","response":"R","message":"M"}`, "R"},
		{`{"message":"M"}`, "M"},
		{`{"data":[]}`, NoAnswer},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var req struct {
				Question string `json:"question"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "where did my money go?", req.Question)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, tt.body)
		})

		resp, err := c.Chat(context.Background(), "where did my money go?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.Text())
	}
}

func TestUploadCSV(t *testing.T) {
	const content = "date,description,amount\n2025-01-03,Swiggy,-450\n"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload_csv", r.URL.Path)
		assert.Greater(t, r.ContentLength, int64(len(content)))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "ledger.csv", hdr.Filename)
		assert.Equal(t, content, string(data))
		writeJSON(w, map[string]any{"ok": true, "rows": 1})
	})

	var lastSent, lastTotal int64
	calls := 0
	got, err := c.UploadCSV(context.Background(), "ledger.csv", strings.NewReader(content), int64(len(content)),
		func(sent, total int64) {
			calls++
			assert.GreaterOrEqual(t, sent, lastSent)
			lastSent, lastTotal = sent, total
		})
	require.NoError(t, err)
	assert.Equal(t, UploadResult{OK: true, Rows: 1}, got)
	assert.Positive(t, calls)
	assert.Equal(t, lastTotal, lastSent)
}

func TestUploadCSV_UnknownSize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		writeJSON(w, map[string]any{"ok": false, "error": "CSV must have columns"})
	})

	got, err := c.UploadCSV(context.Background(), "ledger.csv", strings.NewReader("a,b\n"), -1,
		func(_, total int64) { assert.Equal(t, int64(-1), total) })
	require.NoError(t, err)
	assert.False(t, got.OK)
	assert.Equal(t, "CSV must have columns", got.Error)
}

func TestUploadCSV_InvalidResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{not json")
	})

	_, err := c.UploadCSV(context.Background(), "ledger.csv", strings.NewReader("x"), 1, nil)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"message": "running"})
	})
	assert.True(t, c.Ping(context.Background()))

	down := NewClient("http://127.0.0.1:1")
	assert.False(t, down.Ping(context.Background()))
}
