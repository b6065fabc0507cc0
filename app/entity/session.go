package entity

import "time"

const (
	SessionStatusActive    int32 = 1
	SessionStatusCompleted int32 = 10
	SessionStatusExpired   int32 = 20
)

// GuestCheckoutSession is a tokenized binding between an anonymous buyer's
// details and a quote. It stays active until payment confirmation; once
// completed or expired it is never rebound.
type GuestCheckoutSession struct {
	ID uint64

	Token   string
	QuoteID string

	GuestName       string
	GuestEmail      string
	GuestPhone      string
	ShippingAddress string

	Status int32

	CreatedAt time.Time
	UpdatedAt time.Time
}
