package services

import (
	"context"
	"errors"
	"time"
)

// Notification event types.
const (
	EventRefundCredited = "refund.credited"
	EventOrderCancelled = "order.cancelled"
	EventReturnReviewed = "return.reviewed"
)

// Event is pushed to a user after a committed order change.
type Event struct {
	Type    string    `json:"type"`
	UserID  uint      `json:"user_id"`
	OrderID uint      `json:"order_id"`
	Amount  float64   `json:"amount,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier delivers events to users. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) error { return nil }

// MultiNotifier fans an event out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
