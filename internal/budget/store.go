package budget

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/finchat-dev/finchat/internal/log"
	"github.com/finchat-dev/finchat/internal/model"
)

var (
	// ErrInvalidAmount rejects a budget that is not a positive finite number.
	ErrInvalidAmount = errors.New("please enter a valid monthly budget")
	// ErrEmptyCategory rejects a blank category.
	ErrEmptyCategory = errors.New("category is required")
)

// Gateway is the slice of the remote API the store writes through.
//
//go:generate mockgen -source=store.go -destination=store_mock.go -package=budget
type Gateway interface {
	ListBudgets(ctx context.Context) ([]model.BudgetEntry, error)
	SetBudget(ctx context.Context, category string, amount decimal.Decimal) error
	DeleteBudget(ctx context.Context, category string) error
}

// Store is the locally displayed budget table. Edits are applied
// optimistically, written through to the gateway, and then replaced by a full
// resync. The map is never mutated in place: every change swaps in a new one,
// so snapshots handed out by Entries stay valid.
type Store struct {
	gateway Gateway
	logger  *log.Logger

	mu      sync.Mutex
	entries map[string]model.BudgetEntry
	lastErr error
}

// NewStore creates an empty store.
func NewStore(gw Gateway, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		gateway: gw,
		logger:  logger.WithComponent(log.ComponentBudget),
		entries: map[string]model.BudgetEntry{},
	}
}

// ParseAmount validates a user-entered monthly budget.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return amount, nil
}

// Get returns the displayed entry for category.
func (s *Store) Get(category string) (model.BudgetEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[category]
	return e, ok
}

// Entries returns the displayed table ordered by category.
func (s *Store) Entries() []model.BudgetEntry {
	s.mu.Lock()
	current := s.entries
	s.mu.Unlock()

	out := make([]model.BudgetEntry, 0, len(current))
	for _, e := range current {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b model.BudgetEntry) int {
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

// Err returns the error from the most recent operation, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// replace swaps in a modified copy of the current map.
func (s *Store) replace(edit func(next map[string]model.BudgetEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]model.BudgetEntry, len(s.entries)+1)
	for k, v := range s.entries {
		next[k] = v
	}
	edit(next)
	s.entries = next
}

// Resync replaces the table wholesale with the gateway's version. On failure
// the displayed table is left as it was.
func (s *Store) Resync(ctx context.Context) error {
	remote, err := s.gateway.ListBudgets(ctx)
	if err != nil {
		s.logger.Warn("could not load budgets", log.FieldOperation, log.OpResync, log.FieldError, err)
		err = fmt.Errorf("could not load budgets: %w", err)
		s.setErr(err)
		return err
	}

	next := make(map[string]model.BudgetEntry, len(remote))
	for _, e := range remote {
		next[e.Category] = e
	}
	s.mu.Lock()
	s.entries = next
	s.lastErr = nil
	s.mu.Unlock()

	s.logger.Debug("budgets resynced", log.FieldOperation, log.OpResync, "count", len(next))
	return nil
}

// SetBudget validates amount, shows the new entry immediately, writes it
// through and then resyncs. A failed write is not rolled back; the next
// successful resync corrects the table.
func (s *Store) SetBudget(ctx context.Context, category, amount string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrEmptyCategory
	}
	value, err := ParseAmount(amount)
	if err != nil {
		return err
	}

	s.replace(func(next map[string]model.BudgetEntry) {
		next[category] = model.BudgetEntry{Category: category, MonthlyBudget: value}
	})

	var writeErr error
	if err := s.gateway.SetBudget(ctx, category, value); err != nil {
		s.logger.Warn("budget write failed",
			log.FieldOperation, log.OpSet, log.FieldCategory, category, log.FieldAmount, value.String(), log.FieldError, err)
		writeErr = fmt.Errorf("failed to set budget: %w", err)
	} else {
		s.logger.Info("budget set", log.FieldCategory, category, log.FieldAmount, value.String())
	}

	return s.settle(ctx, writeErr)
}

// DeleteBudget removes category immediately, writes the deletion through and
// resyncs.
func (s *Store) DeleteBudget(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrEmptyCategory
	}

	s.replace(func(next map[string]model.BudgetEntry) {
		delete(next, category)
	})

	var writeErr error
	if err := s.gateway.DeleteBudget(ctx, category); err != nil {
		s.logger.Warn("budget delete failed",
			log.FieldOperation, log.OpDelete, log.FieldCategory, category, log.FieldError, err)
		writeErr = fmt.Errorf("failed to delete budget: %w", err)
	}

	return s.settle(ctx, writeErr)
}

// settle runs the resync that follows every write, only after the write has
// finished.
func (s *Store) settle(ctx context.Context, writeErr error) error {
	resyncErr := s.Resync(ctx)
	err := errors.Join(writeErr, resyncErr)
	s.setErr(err)
	return err
}
