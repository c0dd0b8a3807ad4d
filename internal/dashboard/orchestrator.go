package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finchat-dev/finchat/internal/budget"
	"github.com/finchat-dev/finchat/internal/gateway"
	"github.com/finchat-dev/finchat/internal/log"
	"github.com/finchat-dev/finchat/internal/model"
	"github.com/finchat-dev/finchat/internal/transform"
	"github.com/finchat-dev/finchat/internal/upload"
)

// ErrEmptyQuestion rejects a blank chat question before any request is sent.
var ErrEmptyQuestion = errors.New("question is empty")

// Gateway is everything the dashboard reads from the remote service.
type Gateway interface {
	budget.Gateway
	upload.Uploader

	ByCategory(ctx context.Context) (gateway.LabelValues, error)
	TopMerchants(ctx context.Context, limit int) (gateway.LabelValues, error)
	MonthlyTotals(ctx context.Context) (gateway.LabelValues, error)
	CategoryPie(ctx context.Context) (gateway.CategoryPie, error)
	MonthlyTrend(ctx context.Context) (gateway.MonthlyTrend, error)
	IncomeVsExpenses(ctx context.Context) gateway.IncomeVsExpenses
	TopMerchantsByTotal(ctx context.Context, limit int) (gateway.RankedBars, error)
	TopMerchantsBySingle(ctx context.Context, limit int) (gateway.RankedBars, error)
	SpendingAlerts(ctx context.Context) ([]model.SpendingAlert, error)
	Chat(ctx context.Context, question string) (gateway.ChatResponse, error)
	Ping(ctx context.Context) bool
}

// Limits controls how many merchants each ranked view asks for.
type Limits struct {
	TopMerchants int // /summary/top_merchants
	ChartBars    int // top merchant bar charts
}

// DefaultLimits mirrors the gateway's own defaults.
func DefaultLimits() Limits {
	return Limits{TopMerchants: 5, ChartBars: 10}
}

// Snapshot is one fully refreshed set of dashboard series.
type Snapshot struct {
	ByCategory    model.SummarySeries
	TopMerchants  model.SummarySeries
	MonthlyTotals model.SummarySeries
	Categories    model.SummarySeries
	Trend         model.TrendSeries
	Net           model.NetPosition
	TopByTotal    model.SummarySeries
	TopBySingle   model.SummarySeries
	RefreshedAt   time.Time
}

// Dashboard composes the gateway, the budget store and upload tracking.
type Dashboard struct {
	gw      Gateway
	limits  Limits
	logger  *log.Logger
	budgets *budget.Store

	mu       sync.Mutex
	snapshot *Snapshot
}

// New creates a Dashboard with an empty budget store.
func New(gw Gateway, limits Limits, logger *log.Logger) *Dashboard {
	if logger == nil {
		logger = log.Discard()
	}
	return &Dashboard{
		gw:      gw,
		limits:  limits,
		logger:  logger.WithComponent(log.ComponentDashboard),
		budgets: budget.NewStore(gw, logger),
	}
}

// Budgets returns the budget store.
func (d *Dashboard) Budgets() *budget.Store { return d.budgets }

// Snapshot returns the last applied refresh, if any.
func (d *Dashboard) Snapshot() (Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snapshot == nil {
		return Snapshot{}, false
	}
	return *d.snapshot, true
}

// Mount performs the initial load: a full refresh and a budget resync.
func (d *Dashboard) Mount(ctx context.Context) error {
	return errors.Join(d.Refresh(ctx), d.budgets.Resync(ctx))
}

// Refresh fetches every summary concurrently and applies them together once
// all requests have settled. If any request fails the previous snapshot is
// kept.
func (d *Dashboard) Refresh(ctx context.Context) error {
	var (
		g    errgroup.Group
		next Snapshot
	)

	g.Go(func() error {
		raw, err := d.gw.ByCategory(ctx)
		next.ByCategory = transform.FromLabelValues(raw)
		return wrap("by_category", err)
	})
	g.Go(func() error {
		raw, err := d.gw.TopMerchants(ctx, d.limits.TopMerchants)
		next.TopMerchants = transform.FromLabelValues(raw)
		return wrap("top_merchants", err)
	})
	g.Go(func() error {
		raw, err := d.gw.MonthlyTotals(ctx)
		next.MonthlyTotals = transform.FromLabelValues(raw)
		return wrap("monthly_totals", err)
	})
	g.Go(func() error {
		raw, err := d.gw.CategoryPie(ctx)
		next.Categories = transform.ToSummarySeries(raw)
		return wrap("category_pie", err)
	})
	g.Go(func() error {
		raw, err := d.gw.MonthlyTrend(ctx)
		next.Trend = transform.ToTrendSeries(raw)
		return wrap("monthly_trend", err)
	})
	g.Go(func() error {
		next.Net = transform.DeriveNetPosition(d.gw.IncomeVsExpenses(ctx))
		return nil
	})
	g.Go(func() error {
		raw, err := d.gw.TopMerchantsByTotal(ctx, d.limits.ChartBars)
		next.TopByTotal = transform.ToRankedBarSeries(raw, d.limits.ChartBars)
		return wrap("top_merchants_by_total_spending", err)
	})
	g.Go(func() error {
		raw, err := d.gw.TopMerchantsBySingle(ctx, d.limits.ChartBars)
		next.TopBySingle = transform.ToRankedBarSeries(raw, d.limits.ChartBars)
		return wrap("top_merchants_by_single_payment", err)
	})

	if err := g.Wait(); err != nil {
		d.logger.Error("error refreshing data", log.FieldOperation, log.OpRefresh, log.FieldError, err)
		return fmt.Errorf("refreshing dashboard: %w", err)
	}

	next.RefreshedAt = time.Now()
	d.mu.Lock()
	d.snapshot = &next
	d.mu.Unlock()

	d.logger.Debug("dashboard refreshed", log.FieldOperation, log.OpRefresh)
	return nil
}

func wrap(series string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", series, err)
	}
	return nil
}

// NewUploadTracker returns a tracker that refreshes the dashboard after every
// successful upload.
func (d *Dashboard) NewUploadTracker(opts ...upload.Option) *upload.Tracker {
	base := []upload.Option{upload.WithRefresh(d.Refresh), upload.WithLogger(d.logger)}
	return upload.NewTracker(d.gw, append(base, opts...)...)
}

// Ask sends a chat question and returns the answer text.
func (d *Dashboard) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	resp, err := d.gw.Chat(ctx, question)
	if err != nil {
		d.logger.Warn("chat failed", log.FieldOperation, log.OpChat, log.FieldError, err)
		return "", fmt.Errorf("chat failed: %w", err)
	}
	return resp.Text(), nil
}

// Alerts lists categories that are over budget this month.
func (d *Dashboard) Alerts(ctx context.Context) ([]model.SpendingAlert, error) {
	alerts, err := d.gw.SpendingAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading spending alerts: %w", err)
	}
	return alerts, nil
}

// Reachable reports whether the gateway answers.
func (d *Dashboard) Reachable(ctx context.Context) bool {
	return d.gw.Ping(ctx)
}
