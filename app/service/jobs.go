package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
	"github.com/vibast-solutions/ms-go-webhooks/app/mapper"
	"github.com/vibast-solutions/ms-go-webhooks/app/types"
)

// RunDispatchNotificationsBatch delivers pending downstream notifications
// for transactions that reached a terminal status or accumulated a refund.
func (s *WebhookService) RunDispatchNotificationsBatch(ctx context.Context) error {
	now := time.Now().UTC()
	items, err := s.store.Repos().Transactions.ListDueNotify(ctx, now, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, txn := range items {
		if txn == nil {
			continue
		}
		if err := s.dispatchNotification(ctx, txn, now); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

// RunExpireSessionsBatch expires guest checkout sessions that stayed active
// past their TTL without a payment outcome.
func (s *WebhookService) RunExpireSessionsBatch(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := now.Add(-s.sessionsCfg.TTL)
	items, err := s.store.Repos().Sessions.ListStaleActive(ctx, cutoff, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, session := range items {
		if session == nil || session.Status != entity.SessionStatusActive {
			continue
		}

		session.Status = entity.SessionStatusExpired
		session.UpdatedAt = now
		if err := s.store.Repos().Sessions.Update(ctx, session); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

func (s *WebhookService) dispatchNotification(ctx context.Context, txn *entity.PaymentTransaction, now time.Time) error {
	if strings.TrimSpace(s.notifyCfg.URL) == "" {
		errMsg := "notify url is not configured"
		txn.NotifyStatus = entity.NotifyDeliveryFailed
		txn.NotifyNextAt = nil
		txn.NotifyLastErr = &errMsg
		txn.UpdatedAt = now
		return s.store.Repos().Transactions.Update(ctx, txn)
	}

	payload := &types.TransactionEnvelopeResponse{Transaction: mapper.TransactionToResponse(txn)}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.notifyCfg.URL, bytes.NewReader(body))
	if err != nil {
		return s.recordDispatchFailure(ctx, txn, now, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.notifyHTTP.Do(req)
	if err != nil {
		return s.recordDispatchFailure(ctx, txn, now, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.recordDispatchFailure(ctx, txn, now, fmt.Errorf("notify endpoint returned status=%d", resp.StatusCode))
	}

	txn.NotifyStatus = entity.NotifyDeliverySuccess
	txn.NotifyNextAt = nil
	txn.NotifyLastErr = nil
	txn.UpdatedAt = now

	if err := s.store.Repos().Transactions.Update(ctx, txn); err != nil {
		return err
	}

	_ = s.store.Repos().Events.Create(ctx, &entity.TransactionEvent{
		TransactionID: txn.ID,
		EventType:     "notification_dispatched",
		NewStatus:     txn.Status,
		CreatedAt:     now,
	})

	return nil
}

func (s *WebhookService) recordDispatchFailure(ctx context.Context, txn *entity.PaymentTransaction, now time.Time, dispatchErr error) error {
	txn.NotifyAttempts++
	trimmed := truncate(dispatchErr.Error(), 1024)
	txn.NotifyLastErr = &trimmed

	maxAttempts := s.notifyCfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	if txn.NotifyAttempts >= maxAttempts {
		txn.NotifyStatus = entity.NotifyDeliveryFailed
		txn.NotifyNextAt = nil
	} else {
		retryInterval := s.notifyCfg.RetryInterval
		if retryInterval <= 0 {
			retryInterval = 5 * time.Minute
		}
		next := now.Add(retryInterval)
		txn.NotifyStatus = entity.NotifyDeliveryPending
		txn.NotifyNextAt = &next
	}
	txn.UpdatedAt = now

	if err := s.store.Repos().Transactions.Update(ctx, txn); err != nil {
		return err
	}

	_ = s.store.Repos().Events.Create(ctx, &entity.TransactionEvent{
		TransactionID: txn.ID,
		EventType:     "notification_dispatch_failed",
		NewStatus:     txn.Status,
		CreatedAt:     now,
	})

	return dispatchErr
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
