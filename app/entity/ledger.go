package entity

import "time"

const (
	LedgerKindCapture int32 = 1
	LedgerKindRefund  int32 = 2
)

// PaymentLedgerEntry is an immutable, signed monetary movement tied to a
// transaction: positive for a capture, negative for a refund. Rows are
// append-only and never updated or deleted.
type PaymentLedgerEntry struct {
	ID uint64

	EntryID       string
	TransactionID uint64

	AmountCents int64
	Currency    string
	Kind        int32

	GatewayTxnRef *string

	CreatedAt time.Time
}
