package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

var (
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrTransactionAlreadyExists = errors.New("transaction already exists")
)

type TransactionFilter struct {
	Gateway       string
	MerchantTxnID string
	HasStatus     bool
	Status        entity.PaymentStatus
	Limit         int32
	Offset        int32
}

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, gateway, merchant_txn_id, gateway_txn_ref,
	amount_cents, currency, status, quote_ids_json, guest_session_token,
	refunded_cents, refund_count,
	notify_status, notify_attempts, notify_next_at, notify_last_error,
	created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, txn *entity.PaymentTransaction) error {
	quoteIDsJSON, err := serializeIDList(txn.QuoteIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payment_transactions (
			gateway, merchant_txn_id, gateway_txn_ref,
			amount_cents, currency, status, quote_ids_json, guest_session_token,
			refunded_cents, refund_count,
			notify_status, notify_attempts, notify_next_at, notify_last_error,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		txn.Gateway,
		txn.MerchantTxnID,
		nullableStringValue(txn.GatewayTxnRef),
		txn.AmountCents,
		txn.Currency,
		int32(txn.Status),
		quoteIDsJSON,
		nullableStringValue(txn.GuestSessionToken),
		txn.RefundedCents,
		txn.RefundCount,
		txn.NotifyStatus,
		txn.NotifyAttempts,
		nullableTimeValue(txn.NotifyNextAt),
		nullableStringValue(txn.NotifyLastErr),
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrTransactionAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	txn.ID = uint64(id)
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, txn *entity.PaymentTransaction) error {
	quoteIDsJSON, err := serializeIDList(txn.QuoteIDs)
	if err != nil {
		return err
	}

	query := `
		UPDATE payment_transactions SET
			gateway_txn_ref = ?,
			amount_cents = ?,
			currency = ?,
			status = ?,
			quote_ids_json = ?,
			guest_session_token = ?,
			refunded_cents = ?,
			refund_count = ?,
			notify_status = ?,
			notify_attempts = ?,
			notify_next_at = ?,
			notify_last_error = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableStringValue(txn.GatewayTxnRef),
		txn.AmountCents,
		txn.Currency,
		int32(txn.Status),
		quoteIDsJSON,
		nullableStringValue(txn.GuestSessionToken),
		txn.RefundedCents,
		txn.RefundCount,
		txn.NotifyStatus,
		txn.NotifyAttempts,
		nullableTimeValue(txn.NotifyNextAt),
		nullableStringValue(txn.NotifyLastErr),
		txn.UpdatedAt,
		txn.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uint64) (*entity.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = ?`

	txn := &entity.PaymentTransaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, id), txn); err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	} else if err != nil {
		return nil, err
	}
	return txn, nil
}

// FindByMerchantTxnID locates a transaction by its gateway-scoped merchant
// txn id. With forUpdate set the row is locked for the remainder of the
// surrounding database transaction, serializing concurrent deliveries of
// the same event.
func (r *TransactionRepository) FindByMerchantTxnID(ctx context.Context, gateway, merchantTxnID string, forUpdate bool) (*entity.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE gateway = ? AND merchant_txn_id = ?
		LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	txn := &entity.PaymentTransaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, gateway, merchantTxnID), txn); err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	} else if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter TransactionFilter) ([]*entity.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions`

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if strings.TrimSpace(filter.Gateway) != "" {
		conditions = append(conditions, "gateway = ?")
		args = append(args, filter.Gateway)
	}
	if strings.TrimSpace(filter.MerchantTxnID) != "" {
		conditions = append(conditions, "merchant_txn_id = ?")
		args = append(args, filter.MerchantTxnID)
	}
	if filter.HasStatus {
		conditions = append(conditions, "status = ?")
		args = append(args, int32(filter.Status))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*entity.PaymentTransaction, 0)
	for rows.Next() {
		item := &entity.PaymentTransaction{}
		if err := scanTransaction(rows, item); err != nil {
			return nil, err
		}
		transactions = append(transactions, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *TransactionRepository) ListDueNotify(ctx context.Context, now time.Time, limit int32) ([]*entity.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE notify_status = ?
		  AND notify_next_at IS NOT NULL
		  AND notify_next_at <= ?
		ORDER BY notify_next_at ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, entity.NotifyDeliveryPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]*entity.PaymentTransaction, 0)
	for rows.Next() {
		item := &entity.PaymentTransaction{}
		if err := scanTransaction(rows, item); err != nil {
			return nil, err
		}
		transactions = append(transactions, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(scan rowScanner, txn *entity.PaymentTransaction) error {
	var gatewayTxnRef sql.NullString
	var quoteIDsJSON string
	var guestToken sql.NullString
	var status int32
	var notifyNextAt sql.NullTime
	var notifyLastErr sql.NullString

	err := scan.Scan(
		&txn.ID,
		&txn.Gateway,
		&txn.MerchantTxnID,
		&gatewayTxnRef,
		&txn.AmountCents,
		&txn.Currency,
		&status,
		&quoteIDsJSON,
		&guestToken,
		&txn.RefundedCents,
		&txn.RefundCount,
		&txn.NotifyStatus,
		&txn.NotifyAttempts,
		&notifyNextAt,
		&notifyLastErr,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return err
	}

	txn.Status = entity.PaymentStatus(status)
	txn.GatewayTxnRef = stringPtrFromNull(gatewayTxnRef)
	txn.GuestSessionToken = stringPtrFromNull(guestToken)
	txn.NotifyNextAt = timePtrFromNull(notifyNextAt)
	txn.NotifyLastErr = stringPtrFromNull(notifyLastErr)

	quoteIDs, err := parseIDList(quoteIDsJSON)
	if err != nil {
		return err
	}
	txn.QuoteIDs = quoteIDs

	return nil
}
