package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

var ErrQuoteNotFound = errors.New("quote not found")

type QuoteRepository struct {
	db DBTX
}

func NewQuoteRepository(db DBTX) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, status, subtotal_cents, currency,
	guest_name, guest_email, guest_phone, shipping_address,
	created_at, updated_at`

func (r *QuoteRepository) FindByID(ctx context.Context, id string, forUpdate bool) (*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var status int32
	var guestName, guestEmail, guestPhone, shippingAddress sql.NullString

	quote := &entity.Quote{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&quote.ID,
		&status,
		&quote.SubtotalCents,
		&quote.Currency,
		&guestName,
		&guestEmail,
		&guestPhone,
		&shippingAddress,
		&quote.CreatedAt,
		&quote.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, err
	}

	quote.Status = entity.QuoteStatus(status)
	quote.GuestName = stringPtrFromNull(guestName)
	quote.GuestEmail = stringPtrFromNull(guestEmail)
	quote.GuestPhone = stringPtrFromNull(guestPhone)
	quote.ShippingAddress = stringPtrFromNull(shippingAddress)

	return quote, nil
}

func (r *QuoteRepository) Update(ctx context.Context, quote *entity.Quote) error {
	query := `
		UPDATE quotes SET
			status = ?,
			guest_name = ?,
			guest_email = ?,
			guest_phone = ?,
			shipping_address = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		int32(quote.Status),
		nullableStringValue(quote.GuestName),
		nullableStringValue(quote.GuestEmail),
		nullableStringValue(quote.GuestPhone),
		nullableStringValue(quote.ShippingAddress),
		quote.UpdatedAt,
		quote.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrQuoteNotFound
	}

	return nil
}
