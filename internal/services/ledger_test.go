package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"centime/internal/core"
	"centime/internal/storage"
)

func newTestLedger(t *testing.T) (*Ledger, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "centime.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	// No AMQP client in tests; publishing is best effort anyway.
	return NewLedger(repo, nil), repo
}

func newTestUser(t *testing.T, repo *storage.SQLiteRepository, username string) *core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), username, "hash")
	require.NoError(t, err)
	return u
}

func TestLedgerCreateAndList(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")
	ctx := context.Background()

	created, err := ledger.Create(ctx, u.ID, CreateExpenseInput{
		Amount:      "12.50",
		TagName:     "Food",
		Date:        "2024-03-05",
		Description: "lunch",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1250), created.Amount.Cents)
	assert.Equal(t, "Food", created.Tag.Name)
	assert.Equal(t, "lunch", created.Description)

	got, err := ledger.List(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
}

func TestLedgerCreateValidation(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateExpenseInput
		err  error
	}{
		{
			name: "missing amount",
			in:   CreateExpenseInput{TagName: "Food", Date: "2024-03-05"},
			err:  ErrMissingFields,
		},
		{
			name: "missing tag",
			in:   CreateExpenseInput{Amount: "10", Date: "2024-03-05"},
			err:  ErrMissingFields,
		},
		{
			name: "missing date",
			in:   CreateExpenseInput{Amount: "10", TagName: "Food"},
			err:  ErrMissingFields,
		},
		{
			name: "bad amount",
			in:   CreateExpenseInput{Amount: "abc", TagName: "Food", Date: "2024-03-05"},
			err:  core.ErrInvalidAmount,
		},
		{
			name: "zero amount",
			in:   CreateExpenseInput{Amount: "0", TagName: "Food", Date: "2024-03-05"},
			err:  core.ErrInvalidAmount,
		},
		{
			name: "bad date",
			in:   CreateExpenseInput{Amount: "10", TagName: "Food", Date: "next tuesday"},
			err:  core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Create(ctx, u.ID, tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLedgerCreateConcurrentTagProvisioning(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")
	ctx := context.Background()

	const n = 8
	results := make([]*core.Expense, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			e, err := ledger.Create(ctx, u.ID, CreateExpenseInput{
				Amount: "10", TagName: "Groceries", Date: "2024-03-05",
			})
			if err != nil {
				return err
			}
			results[i] = e
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Exactly one tag row for (user, name): every expense shares one id
	// and color.
	tagID := results[0].Tag.ID
	color := results[0].Tag.Color
	for _, e := range results {
		assert.Equal(t, tagID, e.Tag.ID)
		assert.Equal(t, color, e.Tag.Color)
	}

	got, err := ledger.List(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	require.Len(t, got, n)
	for _, e := range got {
		assert.Equal(t, tagID, e.Tag.ID)
	}
}

func TestLedgerListRejectsBadMonth(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")

	_, err := ledger.List(context.Background(), u.ID, 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = ledger.List(context.Background(), u.ID, 2024, 0)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestLedgerDelete(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")
	ctx := context.Background()

	created, err := ledger.Create(ctx, u.ID, CreateExpenseInput{
		Amount: "10", TagName: "Food", Date: "2024-03-05",
	})
	require.NoError(t, err)

	deleted, err := ledger.Delete(ctx, u.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	got, err := ledger.List(ctx, u.ID, 2024, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLedgerDeleteOtherUsersExpense(t *testing.T) {
	ledger, repo := newTestLedger(t)
	mario := newTestUser(t, repo, "mario")
	luigi := newTestUser(t, repo, "luigi")
	ctx := context.Background()

	created, err := ledger.Create(ctx, mario.ID, CreateExpenseInput{
		Amount: "10", TagName: "Food", Date: "2024-03-05",
	})
	require.NoError(t, err)

	_, err = ledger.Delete(ctx, luigi.ID, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Mario still sees it.
	got, err := ledger.List(ctx, mario.ID, 2024, 3)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLedgerDeleteMissingExpense(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")

	_, err := ledger.Delete(context.Background(), u.ID, 9999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedgerReport(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")
	ctx := context.Background()

	for _, e := range []CreateExpenseInput{
		{Amount: "100", TagName: "Food", Date: "2024-03-05"},
		{Amount: "50", TagName: "Food", Date: "2024-03-06"},
		{Amount: "25", TagName: "Travel", Date: "2024-03-10"},
		{Amount: "40", TagName: "Food", Date: "2024-04-01"},
	} {
		_, err := ledger.Create(ctx, u.ID, e)
		require.NoError(t, err)
	}

	report, err := ledger.Report(ctx, u.ID, 2024, 3)
	require.NoError(t, err)

	require.Len(t, report.MonthlyStats, 12)
	assert.Equal(t, int64(17500), report.MonthlyStats[2].Total.Cents)
	assert.Equal(t, int64(4000), report.MonthlyStats[3].Total.Cents)

	require.Len(t, report.DailyStats, 31)
	assert.Equal(t, int64(10000), report.DailyStats[4].Total.Cents)
	assert.Equal(t, int64(5000), report.DailyStats[5].Total.Cents)
	assert.Equal(t, int64(2500), report.DailyStats[9].Total.Cents)

	require.Len(t, report.TagStats, 2)
	assert.Equal(t, "Food", report.TagStats[0].Name)
	assert.InDelta(t, 85.714, report.TagStats[0].Percentage, 0.001)
}

func TestLedgerReportBadMonth(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")

	_, err := ledger.Report(context.Background(), u.ID, 2024, 13)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestLedgerReportEmpty(t *testing.T) {
	ledger, repo := newTestLedger(t)
	u := newTestUser(t, repo, "mario")

	report, err := ledger.Report(context.Background(), u.ID, 2024, 2)
	require.NoError(t, err)
	assert.Len(t, report.MonthlyStats, 12)
	assert.Len(t, report.DailyStats, 29)
	assert.Empty(t, report.TagStats)
}
