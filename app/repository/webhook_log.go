package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

type WebhookLogFilter struct {
	Gateway   string
	RequestID string
	HasStatus bool
	Status    int32
	Limit     int32
	Offset    int32
}

type WebhookLogRepository struct {
	db DBTX
}

func NewWebhookLogRepository(db DBTX) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

func (r *WebhookLogRepository) Create(ctx context.Context, log *entity.WebhookLog) error {
	query := `
		INSERT INTO webhook_logs (
			request_id, gateway, merchant_txn_id, status, error, payload_json, processing_ms, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		log.RequestID,
		log.Gateway,
		nullableStringValue(log.MerchantTxnID),
		log.Status,
		nullableStringValue(log.Error),
		nullableStringValue(log.PayloadJSON),
		log.ProcessingMs,
		log.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = uint64(id)

	return nil
}

func (r *WebhookLogRepository) List(ctx context.Context, filter WebhookLogFilter) ([]*entity.WebhookLog, error) {
	query := `
		SELECT id, request_id, gateway, merchant_txn_id, status, error, payload_json, processing_ms, created_at
		FROM webhook_logs
	`

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if strings.TrimSpace(filter.Gateway) != "" {
		conditions = append(conditions, "gateway = ?")
		args = append(args, filter.Gateway)
	}
	if strings.TrimSpace(filter.RequestID) != "" {
		conditions = append(conditions, "request_id = ?")
		args = append(args, filter.RequestID)
	}
	if filter.HasStatus {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
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

	logs := make([]*entity.WebhookLog, 0)
	for rows.Next() {
		var merchantTxnID, errText, payloadJSON sql.NullString
		item := &entity.WebhookLog{}
		err := rows.Scan(
			&item.ID,
			&item.RequestID,
			&item.Gateway,
			&merchantTxnID,
			&item.Status,
			&errText,
			&payloadJSON,
			&item.ProcessingMs,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		item.MerchantTxnID = stringPtrFromNull(merchantTxnID)
		item.Error = stringPtrFromNull(errText)
		item.PayloadJSON = stringPtrFromNull(payloadJSON)
		logs = append(logs, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}
