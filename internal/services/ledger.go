// Package services orchestrates ledger operations across storage and
// the event queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"centime/internal/amqp"
	"centime/internal/core"
	"centime/internal/log"
	"centime/internal/storage"
)

// ErrMissingFields is returned when a create request omits a required
// field.
var ErrMissingFields = errors.New("amount, tagName and date are required")

// Ledger is the expense ledger service: every operation is scoped to
// the authenticated user passed in.
type Ledger struct {
	repo   *storage.SQLiteRepository
	events *amqp.Client // nil when AMQP is not configured
}

func NewLedger(repo *storage.SQLiteRepository, events *amqp.Client) *Ledger {
	return &Ledger{repo: repo, events: events}
}

// CreateExpenseInput carries raw client input; amounts and dates are
// strings so malformed values fail validation instead of being coerced.
type CreateExpenseInput struct {
	Amount      string
	TagName     string
	Date        string
	Description string
}

// List returns the user's expenses for the calendar month, tag
// embedded, newest first.
func (l *Ledger) List(ctx context.Context, userID int64, year, month int) ([]core.Expense, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	return l.repo.ListExpensesByMonth(ctx, userID, year, month)
}

// Create validates the input, provisions the tag when needed, stores
// the expense, and publishes a created event. Event publishing is best
// effort; the stored expense is the source of truth.
func (l *Ledger) Create(ctx context.Context, userID int64, in CreateExpenseInput) (*core.Expense, error) {
	if strings.TrimSpace(in.Amount) == "" || strings.TrimSpace(in.TagName) == "" || strings.TrimSpace(in.Date) == "" {
		return nil, ErrMissingFields
	}

	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return nil, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if err := core.ValidateDescription(description); err != nil {
		return nil, err
	}

	expense, err := l.repo.CreateExpense(ctx, userID, strings.TrimSpace(in.TagName), core.Money{Cents: cents}, date, description)
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	l.publish(ctx, amqp.NewExpenseEvent(expense.ID, userID, amqp.ActionCreated))
	return expense, nil
}

// Delete removes the user's expense. A missing expense and one owned
// by another user both come back as core.ErrNotFound so existence never
// leaks. The deleted expense is returned for cache invalidation.
func (l *Ledger) Delete(ctx context.Context, userID, expenseID int64) (*core.Expense, error) {
	expense, err := l.repo.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.UserID != userID {
		return nil, core.ErrNotFound
	}
	if err := l.repo.DeleteExpense(ctx, userID, expenseID); err != nil {
		return nil, err
	}

	l.publish(ctx, amqp.NewExpenseEvent(expenseID, userID, amqp.ActionDeleted))
	return expense, nil
}

// Report aggregates the user's expenses into monthly, daily, and tag
// views for the selected period.
func (l *Ledger) Report(ctx context.Context, userID int64, year, month int) (*Report, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}

	yearly, err := l.repo.ListExpensesByYear(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list year expenses: %w", err)
	}
	monthly, err := l.repo.ListExpensesByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list month expenses: %w", err)
	}

	return &Report{
		MonthlyStats: core.MonthlyTotals(year, yearly),
		DailyStats:   core.DailyTotals(year, month, monthly),
		TagStats:     core.TagDistribution(monthly),
	}, nil
}

// Report bundles the three aggregation views for one (year, month)
// period.
type Report struct {
	MonthlyStats []core.MonthlyBucket `json:"monthlyStats"`
	DailyStats   []core.DailyBucket   `json:"dailyStats"`
	TagStats     []core.TagStat       `json:"tagStats"`
}

func (l *Ledger) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishExpenseEvent(ctx, ev); err != nil {
		// Never fail the request over the event queue; the pending
		// sweep picks the expense up later.
		log.FromContext(ctx).WithComponent(log.ComponentLedger).
			ErrorContext(ctx, "Failed to publish expense event",
				"error", err, "id", ev.ID, "action", ev.Action)
	}
}
