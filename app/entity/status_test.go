package entity

import "testing"

func TestAllowedPaymentTransition(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusProcessing, true},
		{PaymentStatusPending, PaymentStatusCompleted, true},
		{PaymentStatusProcessing, PaymentStatusFailed, true},
		{PaymentStatusFailed, PaymentStatusCompleted, true},
		{PaymentStatusFailed, PaymentStatusProcessing, true},
		{PaymentStatusCompleted, PaymentStatusFailed, false},
		{PaymentStatusCompleted, PaymentStatusPending, false},
		{PaymentStatusCancelled, PaymentStatusCompleted, false},
		{PaymentStatusExpired, PaymentStatusCompleted, false},
		{PaymentStatusPending, PaymentStatusPending, false},
		{PaymentStatusPending, PaymentStatusUnknown, false},
	}

	for _, tc := range cases {
		if got := AllowedPaymentTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("AllowedPaymentTransition(%v, %v) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	terminal := []PaymentStatus{PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%v should be terminal", s)
		}
	}
	for _, s := range []PaymentStatus{PaymentStatusUnknown, PaymentStatusPending, PaymentStatusProcessing} {
		if s.Terminal() {
			t.Errorf("%v should not be terminal", s)
		}
	}
}

func TestAllowedQuoteTransition(t *testing.T) {
	cases := []struct {
		from, to QuoteStatus
		want     bool
	}{
		{QuoteStatusAwaitingPayment, QuoteStatusPaid, true},
		{QuoteStatusProcessing, QuoteStatusPaid, true},
		{QuoteStatusPaymentFailed, QuoteStatusPaid, true},
		{QuoteStatusPaymentFailed, QuoteStatusProcessing, true},
		{QuoteStatusPaid, QuoteStatusRefunded, true},
		{QuoteStatusPaid, QuoteStatusPaymentFailed, false},
		{QuoteStatusPaid, QuoteStatusProcessing, false},
		{QuoteStatusRefunded, QuoteStatusPaid, false},
		{QuoteStatusCancelled, QuoteStatusPaid, false},
	}

	for _, tc := range cases {
		if got := AllowedQuoteTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("AllowedQuoteTransition(%v, %v) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestQuoteStatusForPayment(t *testing.T) {
	cases := []struct {
		payment PaymentStatus
		quote   QuoteStatus
	}{
		{PaymentStatusPending, QuoteStatusAwaitingPayment},
		{PaymentStatusProcessing, QuoteStatusProcessing},
		{PaymentStatusCompleted, QuoteStatusPaid},
		{PaymentStatusFailed, QuoteStatusPaymentFailed},
		{PaymentStatusCancelled, QuoteStatusCancelled},
		{PaymentStatusExpired, QuoteStatusExpired},
		{PaymentStatusUnknown, 0},
	}

	for _, tc := range cases {
		if got := QuoteStatusForPayment(tc.payment); got != tc.quote {
			t.Errorf("QuoteStatusForPayment(%v) = %v, want %v", tc.payment, got, tc.quote)
		}
	}
}

func TestRemainingRefundableCents(t *testing.T) {
	txn := &PaymentTransaction{AmountCents: 10000, RefundedCents: 4000}
	if got := txn.RemainingRefundableCents(); got != 6000 {
		t.Errorf("RemainingRefundableCents = %d, want 6000", got)
	}

	txn.RefundedCents = 10000
	if got := txn.RemainingRefundableCents(); got != 0 {
		t.Errorf("RemainingRefundableCents = %d, want 0", got)
	}
}
