package domain

import "time"

// Event is the base interface for all domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderTaxesRecalculated is raised after the tax adjustments of an order were recomputed.
type OrderTaxesRecalculated struct {
	BaseEvent
	OrderID  int64
	Total    int64
	TaxTotal int64
	Currency string
}

// EventName returns the event type identifier.
func (e OrderTaxesRecalculated) EventName() string {
	return "order.taxes_recalculated"
}

// OrderFinalized is raised once an order becomes read-only.
type OrderFinalized struct {
	BaseEvent
	OrderID  int64
	Total    int64
	TaxTotal int64
	Currency string
}

// EventName returns the event type identifier.
func (e OrderFinalized) EventName() string {
	return "order.finalized"
}

// NewTaxesRecalculated snapshots the order totals.
func NewTaxesRecalculated(order *Order, at time.Time) OrderTaxesRecalculated {
	return OrderTaxesRecalculated{
		BaseEvent: BaseEvent{Timestamp: at},
		OrderID:   order.ID,
		Total:     order.Total(),
		TaxTotal:  order.TaxTotal(),
		Currency:  order.Currency,
	}
}

func NewFinalized(order *Order, at time.Time) OrderFinalized {
	return OrderFinalized{
		BaseEvent: BaseEvent{Timestamp: at},
		OrderID:   order.ID,
		Total:     order.Total(),
		TaxTotal:  order.TaxTotal(),
		Currency:  order.Currency,
	}
}
