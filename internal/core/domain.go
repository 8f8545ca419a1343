package core

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

type (
	// User is an account that owns tags and expenses.
	User struct {
		ID           int64     `json:"id"`
		Username     string    `json:"username"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"-"`
	}

	// Tag is a user-defined expense category with a display color.
	// Names are unique per user; the color is assigned at creation and
	// never changes.
	Tag struct {
		ID     int64  `json:"id"`
		UserID int64  `json:"-"`
		Name   string `json:"name"`
		Color  string `json:"color"`
	}

	// Expense is a single dated spending record belonging to one user
	// and one tag.
	Expense struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"-"`
		Amount      Money     `json:"amount"`
		Date        time.Time `json:"date"`
		Description string    `json:"description,omitempty"`
		Tag         Tag       `json:"tag"`

		// ExportState tracks the sheet export lifecycle
		// ("pending", "done", "error"). Not part of the API surface.
		ExportState string `json:"-"`
	}
)

// Export states for Expense.ExportState.
const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportError   = "error"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrEmptyTagName       = errors.New("empty tag name")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrNotFound           = errors.New("not found")
)

const maxDescriptionLen = 200

// ValidateDescription rejects descriptions over the storage limit.
// Empty descriptions are fine; the field is optional.
func ValidateDescription(s string) error {
	if len(s) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateMonth checks a 1-12 month selector. Out-of-range values are
// rejected rather than wrapped into the adjacent year.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewTagColor returns a uniformly random #RRGGBB color for a freshly
// created tag.
func NewTagColor() string {
	return fmt.Sprintf("#%06X", rand.IntN(0x1000000))
}

// ParseDate accepts the two date encodings clients send: a plain
// calendar day ("2006-01-02") or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// DaysInMonth returns the number of days in the given month, accounting
// for leap years.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
