package entity

import "time"

// Quote is the order-to-be whose status is driven by payment confirmation.
// Guest identity fields are bound from a guest checkout session once the
// payment succeeds.
type Quote struct {
	ID string

	Status QuoteStatus

	SubtotalCents int64
	Currency      string

	GuestName       *string
	GuestEmail      *string
	GuestPhone      *string
	ShippingAddress *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
