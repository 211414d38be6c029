package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	ActionBalanceSheet = "updateBalanceSheet"
	ActionContribution = "addMemberContribution"
)

// Event describes one successful write to the document.
type Event struct {
	Action     string    `json:"action"`
	Month      string    `json:"month"`
	MemberName string    `json:"member_name,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	SHA        string    `json:"sha"`
	Backend    string    `json:"backend"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier delivers events. Delivery failures never fail the write that caused them.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
