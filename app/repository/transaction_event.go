package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

type TransactionEventRepository struct {
	db DBTX
}

func NewTransactionEventRepository(db DBTX) *TransactionEventRepository {
	return &TransactionEventRepository{db: db}
}

func (r *TransactionEventRepository) Create(ctx context.Context, event *entity.TransactionEvent) error {
	query := `
		INSERT INTO transaction_events (
			transaction_id, event_type, old_status, new_status, request_id, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var oldStatus interface{}
	if event.OldStatus != nil {
		oldStatus = int32(*event.OldStatus)
	}

	result, err := r.db.ExecContext(ctx, query,
		event.TransactionID,
		event.EventType,
		oldStatus,
		int32(event.NewStatus),
		nullableStringValue(event.RequestID),
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)

	return nil
}
