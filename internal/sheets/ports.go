// Package sheets defines the export port implemented by spreadsheet
// backends.
package sheets

import (
	"context"

	"centime/internal/core"
)

// ExpenseAppender appends a recorded expense as a row in an external
// spreadsheet.
type ExpenseAppender interface {
	AppendExpense(ctx context.Context, e core.Expense) error
}
