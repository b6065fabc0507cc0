package entity

import "time"

const (
	WebhookLogSuccess  int32 = 10
	WebhookLogRejected int32 = 20
	WebhookLogFailed   int32 = 30
)

// WebhookLog is the append-only audit record of one inbound webhook request.
// Every request produces exactly one terminal row regardless of outcome;
// rows are never deleted. The raw payload is captured for rejected requests
// so operators can reconcile them by hand.
type WebhookLog struct {
	ID uint64

	RequestID     string
	Gateway       string
	MerchantTxnID *string

	Status int32
	Error  *string

	PayloadJSON *string

	ProcessingMs int64

	CreatedAt time.Time
}
