package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

var ErrLedgerEntryAlreadyExists = errors.New("ledger entry already exists")

type LedgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Append(ctx context.Context, entry *entity.PaymentLedgerEntry) error {
	query := `
		INSERT INTO payment_ledger_entries (
			entry_id, transaction_id, amount_cents, currency, kind, gateway_txn_ref, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.EntryID,
		entry.TransactionID,
		entry.AmountCents,
		entry.Currency,
		entry.Kind,
		nullableStringValue(entry.GatewayTxnRef),
		entry.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrLedgerEntryAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = uint64(id)

	return nil
}

func (r *LedgerRepository) ListByTransaction(ctx context.Context, transactionID uint64) ([]*entity.PaymentLedgerEntry, error) {
	query := `
		SELECT id, entry_id, transaction_id, amount_cents, currency, kind, gateway_txn_ref, created_at
		FROM payment_ledger_entries
		WHERE transaction_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*entity.PaymentLedgerEntry, 0)
	for rows.Next() {
		var gatewayTxnRef sql.NullString
		item := &entity.PaymentLedgerEntry{}
		err := rows.Scan(
			&item.ID,
			&item.EntryID,
			&item.TransactionID,
			&item.AmountCents,
			&item.Currency,
			&item.Kind,
			&gatewayTxnRef,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		item.GatewayTxnRef = stringPtrFromNull(gatewayTxnRef)
		entries = append(entries, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
