// Package worker drains expense events into the spreadsheet export.
package worker

import (
	"context"
	"errors"
	"fmt"

	"centime/internal/amqp"
	"centime/internal/core"
	"centime/internal/log"
	"centime/internal/sheets"
	"centime/internal/storage"
)

// ExportWorker appends recorded expenses to an external spreadsheet.
// Events drive the fast path; a periodic sweep of pending rows covers
// anything the queue missed.
type ExportWorker struct {
	repo      *storage.SQLiteRepository
	appender  sheets.ExpenseAppender
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(repo *storage.SQLiteRepository, appender sheets.ExpenseAppender, batchSize int, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		repo:      repo,
		appender:  appender,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one consumed expense event. A returned error
// puts the event back on the queue.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	switch ev.Action {
	case amqp.ActionCreated:
		return w.exportOne(ctx, ev.ID)
	case amqp.ActionDeleted:
		// The sheet is an append-only journal; deletions stay local.
		w.logger.DebugContext(ctx, "Ignoring delete event", "id", ev.ID)
		return nil
	default:
		w.logger.WarnContext(ctx, "Unknown event action", "action", ev.Action, "id", ev.ID)
		return nil
	}
}

// Sweep exports a batch of rows still marked pending. Called
// periodically and once on startup.
func (w *ExportWorker) Sweep(ctx context.Context) error {
	pending, err := w.repo.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending export: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Sweeping pending exports", "count", len(pending))
	for _, e := range pending {
		if err := w.export(ctx, e); err != nil {
			w.logger.ErrorContext(ctx, "Sweep export failed", "error", err, "id", e.ID)
		}
	}
	return nil
}

func (w *ExportWorker) exportOne(ctx context.Context, id int64) error {
	expense, err := w.repo.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before the event arrived; nothing to export.
			w.logger.WarnContext(ctx, "Expense gone before export", "id", id)
			return nil
		}
		return fmt.Errorf("load expense: %w", err)
	}
	if expense.ExportState != core.ExportPending {
		return nil
	}
	return w.export(ctx, *expense)
}

// export appends one expense and records the outcome. Append failures
// are terminal: the row is marked error and the event is not requeued,
// so a broken sheet cannot loop deliveries or produce duplicate rows.
func (w *ExportWorker) export(ctx context.Context, e core.Expense) error {
	if err := w.appender.AppendExpense(ctx, e); err != nil {
		w.logger.ErrorContext(ctx, "Sheet append failed", "error", err, "id", e.ID)
		if markErr := w.repo.MarkExportError(ctx, e.ID); markErr != nil {
			return fmt.Errorf("mark export error %d: %w", e.ID, markErr)
		}
		return nil
	}
	if err := w.repo.MarkExported(ctx, e.ID); err != nil {
		return fmt.Errorf("mark exported %d: %w", e.ID, err)
	}
	w.logger.InfoContext(ctx, "Expense exported", "id", e.ID, "tag", e.Tag.Name)
	return nil
}
