// Package storage persists users, tags, and expenses in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"centime/internal/core"

	_ "modernc.org/sqlite"
)

// ErrDuplicateUsername is returned when registering a username that is
// already taken.
var ErrDuplicateUsername = errors.New("username already taken")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// SQLite serializes writes; a single connection avoids SQLITE_BUSY
	// between the transaction in CreateExpense and concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a new user with an already-hashed password.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (*core.User, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?", id))
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateExpense stores an expense, provisioning the tag on first use.
// The find-or-create and the insert run in one transaction so a crash
// cannot leave the two out of step, and a concurrent creation of the
// same tag name resolves through the UNIQUE(user_id, name) constraint
// followed by a re-lookup.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, userID int64, tagName string, amount core.Money, date time.Time, description string) (*core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	tag, err := findOrCreateTag(ctx, tx, userID, tagName)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO expenses (user_id, tag_id, amount_cents, date, description) VALUES (?, ?, ?, ?, ?)",
		userID, tag.ID, amount.Cents, date.UTC(), description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("expense id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user_id", userID,
		"tag", tag.Name,
		"amount_cents", amount.Cents)

	return &core.Expense{
		ID:          id,
		UserID:      userID,
		Amount:      amount,
		Date:        date.UTC(),
		Description: description,
		Tag:         *tag,
		ExportState: core.ExportPending,
	}, nil
}

func findOrCreateTag(ctx context.Context, tx *sql.Tx, userID int64, name string) (*core.Tag, error) {
	tag, err := selectTag(ctx, tx, userID, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find tag: %w", err)
	}

	color := core.NewTagColor()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO tags (user_id, name, color) VALUES (?, ?, ?)",
		userID, name, color,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent creator; the row is
			// there now.
			tag, err = selectTag(ctx, tx, userID, name)
			if err != nil {
				return nil, fmt.Errorf("re-find tag: %w", err)
			}
			return tag, nil
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("tag id: %w", err)
	}
	return &core.Tag{ID: id, UserID: userID, Name: name, Color: color}, nil
}

func selectTag(ctx context.Context, tx *sql.Tx, userID int64, name string) (*core.Tag, error) {
	var t core.Tag
	err := tx.QueryRowContext(ctx,
		"SELECT id, user_id, name, color FROM tags WHERE user_id = ? AND name = ?",
		userID, name,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Color)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const expenseColumns = `e.id, e.user_id, e.amount_cents, e.date, e.description, e.export_state,
	t.id, t.user_id, t.name, t.color`

// ListExpensesByMonth returns a user's expenses within the calendar
// month, tag embedded, newest first.
func (r *SQLiteRepository) ListExpensesByMonth(ctx context.Context, userID int64, year, month int) ([]core.Expense, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN tags t ON t.id = e.tag_id
		WHERE e.user_id = ? AND e.date >= ? AND e.date < ?
		ORDER BY e.date DESC, e.id DESC
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses by month: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// ListExpensesByYear returns a user's expenses for a whole year, tag
// embedded, in date order. Used as report input.
func (r *SQLiteRepository) ListExpensesByYear(ctx context.Context, userID int64, year int) ([]core.Expense, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN tags t ON t.id = e.tag_id
		WHERE e.user_id = ? AND e.date >= ? AND e.date < ?
		ORDER BY e.date, e.id
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses by year: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// GetExpense loads a single expense by id regardless of owner; callers
// enforce ownership.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN tags t ON t.id = e.tag_id
		WHERE e.id = ?
	`, id)
	e, err := scanExpense(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// DeleteExpense removes an expense only when it belongs to the user.
// A missing row and a row owned by someone else are indistinguishable.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListPendingExport returns expenses still waiting to be exported,
// oldest first.
func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN tags t ON t.id = e.tag_id
		WHERE e.export_state = ?
		ORDER BY e.id
		LIMIT ?
	`, core.ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()
	return scanExpenses(rows)
}

// MarkExported records a successful sheet export.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	return r.setExportState(ctx, id, core.ExportDone)
}

// MarkExportError records a failed sheet export; the periodic sweep
// does not retry these.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	return r.setExportState(ctx, id, core.ExportError)
}

func (r *SQLiteRepository) setExportState(ctx context.Context, id int64, state string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET export_state = ? WHERE id = ?", state, id)
	if err != nil {
		return fmt.Errorf("set export state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func scanExpense(scan func(...any) error) (*core.Expense, error) {
	var e core.Expense
	err := scan(
		&e.ID, &e.UserID, &e.Amount.Cents, &e.Date, &e.Description, &e.ExportState,
		&e.Tag.ID, &e.Tag.UserID, &e.Tag.Name, &e.Tag.Color,
	)
	if err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	return &e, nil
}
