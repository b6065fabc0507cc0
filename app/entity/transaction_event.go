package entity

import "time"

// TransactionEvent is an append-only history row recording a status change
// applied to a transaction and the webhook request that caused it.
type TransactionEvent struct {
	ID uint64

	TransactionID uint64

	EventType string

	OldStatus *PaymentStatus
	NewStatus PaymentStatus

	RequestID *string

	CreatedAt time.Time
}
