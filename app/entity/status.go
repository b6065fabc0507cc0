package entity

// PaymentStatus is the canonical payment status vocabulary. Gateway-specific
// status strings are mapped onto this set by the gateway adapters; anything a
// gateway sends that has no mapping becomes PaymentStatusUnknown and triggers
// no state mutation.
type PaymentStatus int32

const (
	PaymentStatusUnknown    PaymentStatus = 0
	PaymentStatusPending    PaymentStatus = 1
	PaymentStatusProcessing PaymentStatus = 2
	PaymentStatusCompleted  PaymentStatus = 10
	PaymentStatusFailed     PaymentStatus = 20
	PaymentStatusCancelled  PaymentStatus = 30
	PaymentStatusExpired    PaymentStatus = 40
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusPending:
		return "pending"
	case PaymentStatusProcessing:
		return "processing"
	case PaymentStatusCompleted:
		return "completed"
	case PaymentStatusFailed:
		return "failed"
	case PaymentStatusCancelled:
		return "cancelled"
	case PaymentStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether the capture flow is finished for this status.
// Completed is terminal for the capture path; refunds are an additive
// sub-flow and never transition the status away from completed.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired:
		return true
	default:
		return false
	}
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired},
	// A gateway may report success for a transaction it previously bounced
	// when the customer retries on the same merchant txn id.
	PaymentStatusFailed: {PaymentStatusProcessing, PaymentStatusCompleted},
}

// AllowedPaymentTransition reports whether a transaction may move from one
// status to another. Unknown is never a valid source or target.
func AllowedPaymentTransition(from, to PaymentStatus) bool {
	if to == PaymentStatusUnknown || from == to {
		return false
	}
	for _, candidate := range paymentTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// QuoteStatus is the payment-driven lifecycle of a quote.
type QuoteStatus int32

const (
	QuoteStatusDraft           QuoteStatus = 1
	QuoteStatusAwaitingPayment QuoteStatus = 2
	QuoteStatusProcessing      QuoteStatus = 3
	QuoteStatusPaid            QuoteStatus = 10
	QuoteStatusPaymentFailed   QuoteStatus = 20
	QuoteStatusCancelled       QuoteStatus = 30
	QuoteStatusExpired         QuoteStatus = 40
	QuoteStatusRefunded        QuoteStatus = 50
)

func (s QuoteStatus) String() string {
	switch s {
	case QuoteStatusDraft:
		return "draft"
	case QuoteStatusAwaitingPayment:
		return "awaiting_payment"
	case QuoteStatusProcessing:
		return "processing"
	case QuoteStatusPaid:
		return "paid"
	case QuoteStatusPaymentFailed:
		return "payment_failed"
	case QuoteStatusCancelled:
		return "cancelled"
	case QuoteStatusExpired:
		return "expired"
	case QuoteStatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:           {QuoteStatusAwaitingPayment, QuoteStatusProcessing, QuoteStatusPaid, QuoteStatusPaymentFailed, QuoteStatusCancelled, QuoteStatusExpired},
	QuoteStatusAwaitingPayment: {QuoteStatusProcessing, QuoteStatusPaid, QuoteStatusPaymentFailed, QuoteStatusCancelled, QuoteStatusExpired},
	QuoteStatusProcessing:      {QuoteStatusPaid, QuoteStatusPaymentFailed, QuoteStatusCancelled, QuoteStatusExpired},
	// A failed quote stays payable so a shared checkout link can be retried.
	QuoteStatusPaymentFailed: {QuoteStatusProcessing, QuoteStatusPaid},
	// Paid never regresses except through the explicit refund sub-flow.
	QuoteStatusPaid: {QuoteStatusRefunded},
}

// AllowedQuoteTransition reports whether a quote may move from one status to
// another. Out-of-order webhook delivery makes disallowed transitions an
// expected, informational condition rather than an error.
func AllowedQuoteTransition(from, to QuoteStatus) bool {
	if from == to {
		return false
	}
	for _, candidate := range quoteTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// QuoteStatusForPayment maps a canonical payment status to the quote status
// it drives. Unknown maps to zero, meaning no quote transition.
func QuoteStatusForPayment(status PaymentStatus) QuoteStatus {
	switch status {
	case PaymentStatusPending:
		return QuoteStatusAwaitingPayment
	case PaymentStatusProcessing:
		return QuoteStatusProcessing
	case PaymentStatusCompleted:
		return QuoteStatusPaid
	case PaymentStatusFailed:
		return QuoteStatusPaymentFailed
	case PaymentStatusCancelled:
		return QuoteStatusCancelled
	case PaymentStatusExpired:
		return QuoteStatusExpired
	default:
		return 0
	}
}
