package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by an ExpenseEvent.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// ExpenseEvent is the lightweight message published after a ledger
// mutation. It carries only identifiers; the worker fetches the full
// expense from the database.
type ExpenseEvent struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent creates an event for the given expense and action.
func NewExpenseEvent(id, userID int64, action string) *ExpenseEvent {
	return &ExpenseEvent{
		ID:        id,
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON parses an event from JSON bytes.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
