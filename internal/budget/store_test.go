package budget

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/finchat-dev/finchat/internal/model"
)

func entry(category, amount string) model.BudgetEntry {
	return model.BudgetEntry{Category: category, MonthlyBudget: decimal.RequireFromString(amount)}
}

func requireAmount(t *testing.T, s *Store, category, want string) {
	t.Helper()
	got, ok := s.Get(category)
	require.True(t, ok, "expected an entry for %s", category)
	assert.True(t, got.MonthlyBudget.Equal(decimal.RequireFromString(want)),
		"%s: got %s, want %s", category, got.MonthlyBudget, want)
}

func TestSetBudget_OptimisticThenConverges(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := NewMockGateway(ctrl)
	store := NewStore(gw, nil)
	ctx := context.Background()

	gomock.InOrder(
		gw.EXPECT().
			SetBudget(gomock.Any(), "Food", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, amount decimal.Decimal) error {
				// The table already shows the new value before the write returns.
				requireAmount(t, store, "Food", "6000")
				assert.True(t, amount.Equal(decimal.NewFromInt(6000)))
				return nil
			}),
		gw.EXPECT().
			ListBudgets(gomock.Any()).
			Return([]model.BudgetEntry{entry("Food", "5500"), entry("Rent", "20000")}, nil),
	)

	require.NoError(t, store.SetBudget(ctx, "Food", "6000"))

	requireAmount(t, store, "Food", "5500")
	requireAmount(t, store, "Rent", "20000")
	assert.NoError(t, store.Err())
}

func TestSetBudget_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No expectations: any gateway call fails the test.
	store := NewStore(NewMockGateway(ctrl), nil)
	ctx := context.Background()

	for _, amount := range []string{"", "0", "-10", "abc", "NaN", "Inf", "1e"} {
		err := store.SetBudget(ctx, "Food", amount)
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %q", amount)
	}
	assert.ErrorIs(t, store.SetBudget(ctx, "  ", "100"), ErrEmptyCategory)
	assert.Empty(t, store.Entries())
}

func TestSetBudget_WriteFailsResyncSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := NewMockGateway(ctrl)
	store := NewStore(gw, nil)

	gomock.InOrder(
		gw.EXPECT().SetBudget(gomock.Any(), "Food", gomock.Any()).Return(errors.New("boom")),
		gw.EXPECT().ListBudgets(gomock.Any()).Return([]model.BudgetEntry{entry("Rent", "100")}, nil),
	)

	err := store.SetBudget(context.Background(), "Food", "6000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set budget")

	_, ok := store.Get("Food")
	assert.False(t, ok, "server state should win after resync")
	requireAmount(t, store, "Rent", "100")
	assert.Equal(t, err, store.Err())
}

func TestSetBudget_ResyncFailsKeepsOptimisticValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := NewMockGateway(ctrl)
	store := NewStore(gw, nil)
	ctx := context.Background()

	gw.EXPECT().ListBudgets(gomock.Any()).Return([]model.BudgetEntry{entry("Food", "5000")}, nil)
	require.NoError(t, store.Resync(ctx))

	gomock.InOrder(
		gw.EXPECT().SetBudget(gomock.Any(), "Food", gomock.Any()).Return(errors.New("write down")),
		gw.EXPECT().ListBudgets(gomock.Any()).Return(nil, errors.New("read down")),
	)

	err := store.SetBudget(ctx, "Food", "7500")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write down")
	assert.Contains(t, err.Error(), "read down")

	// Replaced, not merged, and not rolled back.
	requireAmount(t, store, "Food", "7500")
	assert.Len(t, store.Entries(), 1)
}

func TestSetBudget_OverlappingCallsLastResyncWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := NewMockGateway(ctrl)
	store := NewStore(gw, nil)
	ctx := context.Background()

	firstResync := make(chan struct{})
	release := make(chan struct{})
	var resyncs atomic.Int32

	gw.EXPECT().SetBudget(gomock.Any(), "Food", gomock.Any()).Return(nil)
	gw.EXPECT().SetBudget(gomock.Any(), "Rent", gomock.Any()).Return(nil)
	gw.EXPECT().ListBudgets(gomock.Any()).Times(2).DoAndReturn(func(context.Context) ([]model.BudgetEntry, error) {
		if resyncs.Add(1) == 1 {
			close(firstResync)
			<-release
			// Stale: the server had not seen the Rent write yet.
			return []model.BudgetEntry{entry("Food", "6000")}, nil
		}
		return []model.BudgetEntry{entry("Food", "6000"), entry("Rent", "20000")}, nil
	})

	done := make(chan error, 1)
	go func() { done <- store.SetBudget(ctx, "Food", "6000") }()
	<-firstResync

	// The second edit does not wait for the first resync.
	require.NoError(t, store.SetBudget(ctx, "Rent", "20000"))
	requireAmount(t, store, "Food", "6000")
	requireAmount(t, store, "Rent", "20000")

	close(release)
	require.NoError(t, <-done)

	// The first resync landed last and replaced the table wholesale.
	requireAmount(t, store, "Food", "6000")
	_, ok := store.Get("Rent")
	assert.False(t, ok)
	assert.Len(t, store.Entries(), 1)
}

func TestDeleteBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := NewMockGateway(ctrl)
	store := NewStore(gw, nil)
	ctx := context.Background()

	gw.EXPECT().ListBudgets(gomock.Any()).Return([]model.BudgetEntry{entry("Food", "5000"), entry("Bills", "3000")}, nil)
	require.NoError(t, store.Resync(ctx))

	gomock.InOrder(
		gw.EXPECT().
			DeleteBudget(gomock.Any(), "Food").
			DoAndReturn(func(context.Context, string) error {
				_, ok := store.Get("Food")
				assert.False(t, ok, "deletion should be visible before the write returns")
				return nil
			}),
		gw.EXPECT().ListBudgets(gomock.Any()).Return([]model.BudgetEntry{entry("Bills", "3000")}, nil),
	)

	require.NoError(t, store.DeleteBudget(ctx, "Food"))
	assert.Equal(t, []model.BudgetEntry{entry("Bills", "3000")}, store.Entries())
}

func TestResync_OneEntryPerCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := NewMockGateway(ctrl)
	store := NewStore(gw, nil)

	gw.EXPECT().ListBudgets(gomock.Any()).Return([]model.BudgetEntry{
		entry("Food", "1000"),
		entry("Transport", "800"),
		entry("Food", "1200"),
	}, nil)

	require.NoError(t, store.Resync(context.Background()))
	entries := store.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Food", entries[0].Category)
	requireAmount(t, store, "Food", "1200")
}

func TestResync_FailureKeepsTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := NewMockGateway(ctrl)
	store := NewStore(gw, nil)
	ctx := context.Background()

	gw.EXPECT().ListBudgets(gomock.Any()).Return([]model.BudgetEntry{entry("Health", "900")}, nil)
	require.NoError(t, store.Resync(ctx))

	gw.EXPECT().ListBudgets(gomock.Any()).Return(nil, errors.New("offline"))
	err := store.Resync(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not load budgets")
	requireAmount(t, store, "Health", "900")
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount(" 5000.50 ")
	require.NoError(t, err)
	assert.Equal(t, "5000.5", got.String())

	_, err = ParseAmount("0.00")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
