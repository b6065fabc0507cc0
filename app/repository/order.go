package repository

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

var ErrOrderAlreadyExists = errors.New("order already exists for quote")

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (
			quote_id, transaction_id, subtotal_cents, shipping_cents, total_cents, currency, status, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		order.QuoteID,
		order.TransactionID,
		order.SubtotalCents,
		order.ShippingCents,
		order.TotalCents,
		order.Currency,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrOrderAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = uint64(id)

	return nil
}

func (r *OrderRepository) ExistsForQuote(ctx context.Context, quoteID string) (bool, error) {
	query := `SELECT COUNT(1) FROM orders WHERE quote_id = ?`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, quoteID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
