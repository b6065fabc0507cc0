package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

var ErrSessionNotFound = errors.New("guest checkout session not found")

type GuestSessionRepository struct {
	db DBTX
}

func NewGuestSessionRepository(db DBTX) *GuestSessionRepository {
	return &GuestSessionRepository{db: db}
}

const sessionColumns = `id, token, quote_id, guest_name, guest_email, guest_phone,
	shipping_address, status, created_at, updated_at`

func (r *GuestSessionRepository) FindByToken(ctx context.Context, token string, forUpdate bool) (*entity.GuestCheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM guest_checkout_sessions WHERE token = ? LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	session := &entity.GuestCheckoutSession{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.ID,
		&session.Token,
		&session.QuoteID,
		&session.GuestName,
		&session.GuestEmail,
		&session.GuestPhone,
		&session.ShippingAddress,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *GuestSessionRepository) Update(ctx context.Context, session *entity.GuestCheckoutSession) error {
	query := `
		UPDATE guest_checkout_sessions SET
			status = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		session.Status,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *GuestSessionRepository) ListStaleActive(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.GuestCheckoutSession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM guest_checkout_sessions
		WHERE status = ?
		  AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, entity.SessionStatusActive, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*entity.GuestCheckoutSession, 0)
	for rows.Next() {
		item := &entity.GuestCheckoutSession{}
		err := rows.Scan(
			&item.ID,
			&item.Token,
			&item.QuoteID,
			&item.GuestName,
			&item.GuestEmail,
			&item.GuestPhone,
			&item.ShippingAddress,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
