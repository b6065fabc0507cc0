package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
	"github.com/vibast-solutions/ms-go-webhooks/app/gateway"
	"github.com/vibast-solutions/ms-go-webhooks/app/pricing"
	"github.com/vibast-solutions/ms-go-webhooks/app/replay"
	"github.com/vibast-solutions/ms-go-webhooks/app/repository"
	"github.com/vibast-solutions/ms-go-webhooks/config"
)

const (
	defaultListLimit = int32(100)
	defaultBatchSize = int32(100)
)

type gatewayWebhookRequest interface {
	GetRequestId() string
	GetGateway() string
	GetFields() gateway.Fields
	GetRawBody() string
}

type listTransactionsRequest interface {
	GetGateway() string
	GetMerchantTxnId() string
	GetHasStatus() bool
	GetStatus() int32
	GetLimit() int32
	GetOffset() int32
}

type listWebhookLogsRequest interface {
	GetGateway() string
	GetRequestId() string
	GetHasStatus() bool
	GetStatus() int32
	GetLimit() int32
	GetOffset() int32
}

// store is the slice of repository.Store the service depends on. Tests
// substitute a fake that hands out in-memory repos.
type store interface {
	Repos() *repository.Repos
	InTransaction(ctx context.Context, fn func(tx *repository.Repos) error) error
}

type WebhookService struct {
	store       store
	gateways    *gateway.Registry
	guard       replay.Guard
	pricing     pricing.Calculator
	webhooksCfg config.WebhooksConfig
	notifyCfg   config.NotifyConfig
	sessionsCfg config.SessionsConfig
	notifyHTTP  *http.Client
	logger      logrus.FieldLogger
}

func NewWebhookService(
	st store,
	gateways *gateway.Registry,
	guard replay.Guard,
	calc pricing.Calculator,
	webhooksCfg config.WebhooksConfig,
	notifyCfg config.NotifyConfig,
	sessionsCfg config.SessionsConfig,
	logger logrus.FieldLogger,
) *WebhookService {
	timeout := notifyCfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookService{
		store:       st,
		gateways:    gateways,
		guard:       guard,
		pricing:     calc,
		webhooksCfg: webhooksCfg,
		notifyCfg:   notifyCfg,
		sessionsCfg: sessionsCfg,
		notifyHTTP:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// WebhookResult is the acknowledged outcome of one webhook request. Applied
// is false when the request was valid but intentionally caused no state
// change (duplicate delivery, unmapped status, out-of-order transition).
type WebhookResult struct {
	Applied     bool
	Message     string
	Transaction *entity.PaymentTransaction
}

// HandleGatewayWebhook runs the full ingestion pipeline for one verified
// gateway notification: signature check, parse, replay guard, correlation,
// then the atomic reconciliation transaction. Every path, success or not,
// leaves exactly one webhook log row.
func (s *WebhookService) HandleGatewayWebhook(ctx context.Context, req gatewayWebhookRequest) (*WebhookResult, error) {
	started := time.Now().UTC()
	requestID := strings.TrimSpace(req.GetRequestId())
	gatewayName := strings.ToLower(strings.TrimSpace(req.GetGateway()))
	if requestID == "" || gatewayName == "" {
		return nil, ErrInvalidRequest
	}

	adapter, err := s.gateways.Get(gatewayName)
	if err != nil {
		s.persistWebhookLog(ctx, requestID, gatewayName, nil, entity.WebhookLogRejected,
			fmt.Sprintf("unsupported gateway %q", gatewayName), req.GetRawBody(), started)
		return nil, ErrGatewayUnsupported
	}

	fields := req.GetFields()
	if err := adapter.VerifySignature(fields); err != nil {
		if errors.Is(err, gateway.ErrSignatureMismatch) {
			s.persistWebhookLog(ctx, requestID, gatewayName, nil, entity.WebhookLogFailed,
				err.Error(), "", started)
			return nil, ErrSignatureMismatch
		}
		s.persistWebhookLog(ctx, requestID, gatewayName, nil, entity.WebhookLogFailed,
			fmt.Sprintf("signature verification failed: %v", err), "", started)
		return nil, err
	}

	notification, err := adapter.Parse(fields)
	if err != nil {
		s.persistWebhookLog(ctx, requestID, gatewayName, nil, entity.WebhookLogRejected,
			fmt.Sprintf("payload rejected: %v", err), req.GetRawBody(), started)
		return nil, ErrWebhookRejected
	}

	merchantTxnID := notification.MerchantTxnID
	if notification.Status == entity.PaymentStatusUnknown {
		message := fmt.Sprintf("unmapped gateway status %q ignored", notification.RawStatus)
		s.logger.WithFields(logrus.Fields{
			"request_id":      requestID,
			"gateway":         gatewayName,
			"merchant_txn_id": merchantTxnID,
			"raw_status":      notification.RawStatus,
		}).Warn("ignoring webhook with unmapped status")
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogSuccess, message, "", started)
		return &WebhookResult{Applied: false, Message: message}, nil
	}

	replayKey := fmt.Sprintf("%s:%s:%s:%d", gatewayName, merchantTxnID,
		strings.ToLower(notification.RawStatus), notification.AmountCents)
	recorded := false
	seen, err := s.guard.Remember(ctx, replayKey)
	if err != nil {
		// The guard is advisory. A storage hiccup must not drop a payment
		// notification, so processing continues without deduplication.
		s.logger.WithError(err).WithField("request_id", requestID).Warn("replay guard unavailable")
	} else if seen {
		message := "duplicate delivery ignored"
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogSuccess, message, "", started)
		return &WebhookResult{Applied: false, Message: message}, nil
	} else {
		recorded = true
	}

	existing, err := s.store.Repos().Transactions.FindByMerchantTxnID(ctx, gatewayName, merchantTxnID, false)
	if err != nil && !errors.Is(err, repository.ErrTransactionNotFound) {
		s.forgetReplay(ctx, replayKey, recorded)
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogFailed, err.Error(), "", started)
		return nil, err
	}
	if existing == nil && len(notification.QuoteIDs) == 0 {
		s.forgetReplay(ctx, replayKey, recorded)
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogRejected,
			"no correlation identifiers could be resolved from the payload", req.GetRawBody(), started)
		return nil, ErrWebhookRejected
	}

	shipping, err := s.resolveShipping(ctx, notification, existing)
	if err != nil {
		s.forgetReplay(ctx, replayKey, recorded)
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogFailed,
			fmt.Sprintf("shipping calculation failed: %v", err), "", started)
		return nil, err
	}

	now := time.Now().UTC()
	var result *applyResult
	txErr := s.store.InTransaction(ctx, func(tx *repository.Repos) error {
		var applyErr error
		result, applyErr = s.applyNotification(ctx, tx, notification, requestID, shipping, now)
		return applyErr
	})

	switch {
	case txErr == nil:
	case errors.Is(txErr, errStaleEvent):
		message := fmt.Sprintf("out-of-order status %q ignored", notification.Status)
		s.logger.WithFields(logrus.Fields{
			"request_id":      requestID,
			"gateway":         gatewayName,
			"merchant_txn_id": merchantTxnID,
			"status":          notification.Status.String(),
		}).Info("ignoring stale status transition")
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogSuccess, message, "", started)
		return &WebhookResult{Applied: false, Message: message}, nil
	case errors.Is(txErr, ErrRefundExceedsBalance):
		s.forgetReplay(ctx, replayKey, recorded)
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogRejected,
			txErr.Error(), req.GetRawBody(), started)
		return nil, txErr
	case errors.Is(txErr, repository.ErrQuoteNotFound):
		s.forgetReplay(ctx, replayKey, recorded)
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogRejected,
			txErr.Error(), req.GetRawBody(), started)
		return nil, ErrWebhookRejected
	default:
		s.forgetReplay(ctx, replayKey, recorded)
		s.logger.WithFields(logrus.Fields{
			"request_id":      requestID,
			"gateway":         gatewayName,
			"merchant_txn_id": merchantTxnID,
			"payload_sha256":  payloadFingerprint(req.GetRawBody()),
			"error":           txErr.Error(),
		}).Error("webhook reconciliation failed")
		s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogFailed, txErr.Error(), "", started)
		return nil, fmt.Errorf("%w: %w", ErrReconciliationInternal, txErr)
	}

	s.persistWebhookLog(ctx, requestID, gatewayName, &merchantTxnID, entity.WebhookLogSuccess, "", "", started)
	return &WebhookResult{Applied: true, Message: "webhook processed", Transaction: result.txn}, nil
}

// RejectMalformed records the audit row for a request whose body could not
// be parsed at all. Called by the transport layer before the pipeline runs.
func (s *WebhookService) RejectMalformed(ctx context.Context, req gatewayWebhookRequest, cause error) {
	started := time.Now().UTC()
	gatewayName := strings.ToLower(strings.TrimSpace(req.GetGateway()))
	s.persistWebhookLog(ctx, strings.TrimSpace(req.GetRequestId()), gatewayName, nil,
		entity.WebhookLogRejected, fmt.Sprintf("malformed payload: %v", cause), req.GetRawBody(), started)
}

func (s *WebhookService) GetTransaction(ctx context.Context, id uint64) (*entity.PaymentTransaction, []*entity.PaymentLedgerEntry, error) {
	repos := s.store.Repos()
	txn, err := repos.Transactions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, nil, ErrTransactionNotFound
		}
		return nil, nil, err
	}

	entries, err := repos.Ledger.ListByTransaction(ctx, txn.ID)
	if err != nil {
		return nil, nil, err
	}
	return txn, entries, nil
}

func (s *WebhookService) ListTransactions(ctx context.Context, req listTransactionsRequest) ([]*entity.PaymentTransaction, error) {
	limit := req.GetLimit()
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	return s.store.Repos().Transactions.List(ctx, repository.TransactionFilter{
		Gateway:       strings.ToLower(strings.TrimSpace(req.GetGateway())),
		MerchantTxnID: strings.TrimSpace(req.GetMerchantTxnId()),
		HasStatus:     req.GetHasStatus(),
		Status:        entity.PaymentStatus(req.GetStatus()),
		Limit:         limit,
		Offset:        req.GetOffset(),
	})
}

func (s *WebhookService) ListWebhookLogs(ctx context.Context, req listWebhookLogsRequest) ([]*entity.WebhookLog, error) {
	limit := req.GetLimit()
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	return s.store.Repos().WebhookLogs.List(ctx, repository.WebhookLogFilter{
		Gateway:   strings.ToLower(strings.TrimSpace(req.GetGateway())),
		RequestID: strings.TrimSpace(req.GetRequestId()),
		HasStatus: req.GetHasStatus(),
		Status:    req.GetStatus(),
		Limit:     limit,
		Offset:    req.GetOffset(),
	})
}

// resolveShipping asks the pricing calculator for the shipping component of
// every quote that could become paid by this notification. It runs before
// the database transaction opens so a slow pricing call never holds row
// locks.
func (s *WebhookService) resolveShipping(
	ctx context.Context,
	n *gateway.Notification,
	existing *entity.PaymentTransaction,
) (map[string]int64, error) {
	if n.Kind != gateway.KindCapture || n.Status != entity.PaymentStatusCompleted {
		return nil, nil
	}

	quoteIDs := n.QuoteIDs
	if existing != nil && len(existing.QuoteIDs) > 0 {
		quoteIDs = existing.QuoteIDs
	}

	shipping := make(map[string]int64, len(quoteIDs))
	for _, quoteID := range quoteIDs {
		cents, err := s.pricing.ShippingQuoteCents(ctx, quoteID)
		if err != nil {
			return nil, err
		}
		shipping[quoteID] = cents
	}
	return shipping, nil
}

func (s *WebhookService) persistWebhookLog(
	ctx context.Context,
	requestID, gatewayName string,
	merchantTxnID *string,
	status int32,
	errText string,
	payload string,
	started time.Time,
) {
	now := time.Now().UTC()
	log := &entity.WebhookLog{
		RequestID:     requestID,
		Gateway:       gatewayName,
		MerchantTxnID: merchantTxnID,
		Status:        status,
		ProcessingMs:  now.Sub(started).Milliseconds(),
		CreatedAt:     now,
	}
	if trimmed := strings.TrimSpace(errText); trimmed != "" {
		value := truncate(trimmed, 1024)
		log.Error = &value
	}
	if payload != "" {
		value := truncate(payload, 65535)
		log.PayloadJSON = &value
	}

	if err := s.store.Repos().WebhookLogs.Create(ctx, log); err != nil {
		s.logger.WithError(err).WithField("request_id", requestID).Error("failed to persist webhook log")
	}
}

func (s *WebhookService) batchSize() int32 {
	if s.webhooksCfg.JobBatchSize > 0 {
		return s.webhooksCfg.JobBatchSize
	}
	return defaultBatchSize
}

// forgetReplay releases a replay key recorded for a delivery whose
// reconciliation did not commit, so the gateway's retry is processed
// instead of being acknowledged as a duplicate.
func (s *WebhookService) forgetReplay(ctx context.Context, key string, recorded bool) {
	if !recorded {
		return
	}
	if err := s.guard.Forget(ctx, key); err != nil {
		s.logger.WithError(err).WithField("replay_key", key).Warn("failed to release replay key")
	}
}

// payloadFingerprint identifies a raw body in logs without storing it.
func payloadFingerprint(rawBody string) string {
	sum := sha256.Sum256([]byte(rawBody))
	return hex.EncodeToString(sum[:])
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
