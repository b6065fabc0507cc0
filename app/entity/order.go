package entity

import "time"

const OrderStatusCreated int32 = 1

// Order is the downstream record created when a quote is fully paid. One
// order per quote; the shipping component comes from the pricing calculator.
type Order struct {
	ID uint64

	QuoteID       string
	TransactionID uint64

	SubtotalCents int64
	ShippingCents int64
	TotalCents    int64
	Currency      string

	Status int32

	CreatedAt time.Time
}
