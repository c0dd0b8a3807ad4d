package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finchat-dev/finchat/internal/log"
	"github.com/finchat-dev/finchat/internal/model"
)

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP error! status: %d", e.Method, e.Path, e.StatusCode)
}

// StatusText returns the reason phrase, falling back to the standard text for
// the code.
func (e *StatusError) StatusText() string {
	if _, text, ok := strings.Cut(e.Status, " "); ok && text != "" {
		return text
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return text
	}
	return strconv.Itoa(e.StatusCode)
}

// Client talks to the Summary Gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentGateway) }
}

// WithTimeout bounds every request. Zero means no timeout. The current HTTP
// client is copied first, so a shared client is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// NewClient creates a gateway client for baseURL, e.g. "http://localhost:8000".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     log.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the gateway root.
func (c *Client) BaseURL() string { return c.baseURL }

// newRequest builds a request for endpoint. GETs get a cache-defeating query
// parameter and no-cache headers so every call observes current server state.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	target := c.baseURL + endpoint
	if method == http.MethodGet {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "_=" + strconv.FormatInt(c.now().UnixMilli(), 10)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, endpoint, err)
	}
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		req.Header.Set("Pragma", "no-cache")
		req.Header.Set("Expires", "0")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// do sends req and returns the body of a 2xx JSON response. A 2xx response
// that is not JSON yields a nil body and no error.
func (c *Client) do(req *http.Request) ([]byte, error) {
	path := req.URL.Path
	fields := log.NewFields().WithRequest(req.Header.Get("X-Request-ID"), req.Method, path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("gateway request failed", fields.WithError(err).ToSlice()...)
		return nil, fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	fields[log.FieldStatusCode] = resp.StatusCode
	fields[log.FieldDuration] = time.Since(start).Milliseconds()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("gateway returned error status", fields.ToSlice()...)
		return nil, &StatusError{Method: req.Method, Path: path, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	c.logger.Debug("gateway request", fields.ToSlice()...)
	if !isJSON(resp.Header.Get("Content-Type")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading body: %w", req.Method, path, err)
	}
	return data, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json"
}

// getJSON fetches endpoint and decodes it into out. An empty body leaves out
// untouched.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	data, err := c.do(req)
	if err != nil {
		return err
	}
	return decodeInto(endpoint, data, out)
}

func decodeInto(endpoint string, data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return nil
}

// ByCategory fetches /summary/by_category.
func (c *Client) ByCategory(ctx context.Context) (LabelValues, error) {
	var out LabelValues
	err := c.getJSON(ctx, "/summary/by_category", &out)
	return out, err
}

// TopMerchants fetches /summary/top_merchants.
func (c *Client) TopMerchants(ctx context.Context, limit int) (LabelValues, error) {
	var out LabelValues
	err := c.getJSON(ctx, "/summary/top_merchants"+limitQuery(limit), &out)
	return out, err
}

// MonthlyTotals fetches /summary/monthly_totals.
func (c *Client) MonthlyTotals(ctx context.Context) (LabelValues, error) {
	var out LabelValues
	err := c.getJSON(ctx, "/summary/monthly_totals", &out)
	return out, err
}

// CategoryPie fetches /visualization/category_pie.
func (c *Client) CategoryPie(ctx context.Context) (CategoryPie, error) {
	var out CategoryPie
	err := c.getJSON(ctx, "/visualization/category_pie", &out)
	return out, err
}

// MonthlyTrend fetches /visualization/monthly_trend.
func (c *Client) MonthlyTrend(ctx context.Context) (MonthlyTrend, error) {
	var out MonthlyTrend
	err := c.getJSON(ctx, "/visualization/monthly_trend", &out)
	return out, err
}

// IncomeVsExpenses fetches /visualization/income_vs_expenses. Any failure is
// swallowed and reported as an all-zero payload.
func (c *Client) IncomeVsExpenses(ctx context.Context) IncomeVsExpenses {
	var out IncomeVsExpenses
	if err := c.getJSON(ctx, "/visualization/income_vs_expenses", &out); err != nil {
		c.logger.Warn("income vs expenses unavailable, using zeros", log.FieldError, err)
		return IncomeVsExpenses{}
	}
	return out
}

// TopMerchantsByTotal fetches /visualization/top_merchants_by_total_spending.
func (c *Client) TopMerchantsByTotal(ctx context.Context, limit int) (RankedBars, error) {
	var out RankedBars
	err := c.getJSON(ctx, "/visualization/top_merchants_by_total_spending"+limitQuery(limit), &out)
	return out, err
}

// TopMerchantsBySingle fetches /visualization/top_merchants_by_single_payment.
func (c *Client) TopMerchantsBySingle(ctx context.Context, limit int) (RankedBars, error) {
	var out RankedBars
	err := c.getJSON(ctx, "/visualization/top_merchants_by_single_payment"+limitQuery(limit), &out)
	return out, err
}

// ListBudgets fetches the authoritative budget table.
func (c *Client) ListBudgets(ctx context.Context) ([]model.BudgetEntry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/budgets", nil)
	if err != nil {
		return nil, err
	}
	data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	entries, err := decodeBudgets(data)
	if err != nil {
		return nil, fmt.Errorf("decoding /budgets: %w", err)
	}
	return entries, nil
}

// SetBudget writes one budget entry.
func (c *Client) SetBudget(ctx context.Context, category string, amount decimal.Decimal) error {
	q := url.Values{}
	q.Set("category", category)
	q.Set("monthly_budget", amount.String())
	req, err := c.newRequest(ctx, http.MethodPost, "/budgets?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// DeleteBudget removes the budget for category.
func (c *Client) DeleteBudget(ctx context.Context, category string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/budgets/"+escapeSegment(category), nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// escapeSegment escapes a path segment the way encodeURIComponent does, so
// reserved characters such as '&' and '+' in a category survive routing.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// SpendingAlerts fetches categories that are over budget this month.
func (c *Client) SpendingAlerts(ctx context.Context) ([]model.SpendingAlert, error) {
	var raw []spendingAlert
	if err := c.getJSON(ctx, "/spending-alerts", &raw); err != nil {
		return nil, err
	}
	alerts := make([]model.SpendingAlert, 0, len(raw))
	for _, a := range raw {
		alerts = append(alerts, model.SpendingAlert(a))
	}
	return alerts, nil
}

// Chat asks a free-form question.
func (c *Client) Chat(ctx context.Context, question string) (ChatResponse, error) {
	body, err := json.Marshal(struct {
		Question string `json:"question"`
	}{Question: question})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("encoding chat request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/chat", bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return ChatResponse{}, err
	}
	var out ChatResponse
	if err := decodeInto("/chat", data, &out); err != nil {
		return ChatResponse{}, err
	}
	return out, nil
}

// Ping reports whether the gateway root answers with a 2xx status.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("server not reachable", log.FieldError, err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
