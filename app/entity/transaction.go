package entity

import "time"

const (
	NotifyDeliveryNone    int32 = 0
	NotifyDeliveryPending int32 = 1
	NotifyDeliverySuccess int32 = 10
	NotifyDeliveryFailed  int32 = 20
)

// PaymentTransaction is the internal record of one gateway payment. It is
// created at payment initiation by the checkout service and mutated here as
// status notifications arrive; when a notification references a transaction
// we have never seen, the reconciler creates it on the fly.
type PaymentTransaction struct {
	ID uint64

	Gateway       string
	MerchantTxnID string
	GatewayTxnRef *string

	AmountCents int64
	Currency    string

	Status PaymentStatus

	QuoteIDs []string

	GuestSessionToken *string

	RefundedCents int64
	RefundCount   int32

	NotifyStatus   int32
	NotifyAttempts int32
	NotifyNextAt   *time.Time
	NotifyLastErr  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RemainingRefundableCents is the captured amount not yet returned. The sum
// of refund ledger entries never exceeds the captured amount.
func (t *PaymentTransaction) RemainingRefundableCents() int64 {
	remaining := t.AmountCents - t.RefundedCents
	if remaining < 0 {
		return 0
	}
	return remaining
}
