package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
	"github.com/vibast-solutions/ms-go-webhooks/app/gateway"
	"github.com/vibast-solutions/ms-go-webhooks/app/repository"
)

type applyResult struct {
	txn *entity.PaymentTransaction
}

// applyNotification is the transactional core of reconciliation. It runs
// inside a single database transaction; any error rolls back every write it
// made. Row locks are taken transaction-first, then quote, then session, in
// a fixed order so concurrent webhooks for the same payment serialize
// instead of deadlocking.
func (s *WebhookService) applyNotification(
	ctx context.Context,
	tx *repository.Repos,
	n *gateway.Notification,
	requestID string,
	shipping map[string]int64,
	now time.Time,
) (*applyResult, error) {
	txn, created, err := s.findOrCreateTransaction(ctx, tx, n, now)
	if err != nil {
		return nil, err
	}

	if n.Kind == gateway.KindRefund {
		return s.applyRefund(ctx, tx, txn, n, requestID, now)
	}

	oldStatus := txn.Status
	if !created {
		if !entity.AllowedPaymentTransition(oldStatus, n.Status) {
			return nil, errStaleEvent
		}
		txn.Status = n.Status
	}

	if ref := strings.TrimSpace(n.GatewayTxnRef); ref != "" {
		txn.GatewayTxnRef = &ref
	}
	if token := strings.TrimSpace(n.GuestToken); token != "" && txn.GuestSessionToken == nil {
		txn.GuestSessionToken = &token
	}

	if txn.Status.Terminal() && (created || txn.Status != oldStatus) {
		s.markForNotify(txn, now)
	}
	txn.UpdatedAt = now

	if err := tx.Transactions.Update(ctx, txn); err != nil {
		return nil, err
	}

	if txn.Status == entity.PaymentStatusCompleted {
		ref := txn.GatewayTxnRef
		if err := tx.Ledger.Append(ctx, &entity.PaymentLedgerEntry{
			EntryID:       uuid.NewString(),
			TransactionID: txn.ID,
			AmountCents:   txn.AmountCents,
			Currency:      txn.Currency,
			Kind:          entity.LedgerKindCapture,
			GatewayTxnRef: ref,
			CreatedAt:     now,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.applyQuoteAndSessionChanges(ctx, tx, txn, n.Status, shipping, now); err != nil {
		return nil, err
	}

	eventOld := &oldStatus
	if created {
		eventOld = nil
	}
	_ = tx.Events.Create(ctx, &entity.TransactionEvent{
		TransactionID: txn.ID,
		EventType:     "webhook_" + n.Status.String(),
		OldStatus:     eventOld,
		NewStatus:     txn.Status,
		RequestID:     &requestID,
		CreatedAt:     now,
	})

	return &applyResult{txn: txn}, nil
}

func (s *WebhookService) findOrCreateTransaction(
	ctx context.Context,
	tx *repository.Repos,
	n *gateway.Notification,
	now time.Time,
) (*entity.PaymentTransaction, bool, error) {
	txn, err := tx.Transactions.FindByMerchantTxnID(ctx, n.Gateway, n.MerchantTxnID, true)
	if err == nil {
		return txn, false, nil
	}
	if !errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, false, err
	}
	if n.Kind == gateway.KindRefund {
		return nil, false, fmt.Errorf("%w: refund for unknown merchant txn %q", ErrRefundExceedsBalance, n.MerchantTxnID)
	}

	txn = &entity.PaymentTransaction{
		Gateway:       n.Gateway,
		MerchantTxnID: n.MerchantTxnID,
		AmountCents:   n.AmountCents,
		Currency:      n.Currency,
		Status:        n.Status,
		QuoteIDs:      n.QuoteIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if token := strings.TrimSpace(n.GuestToken); token != "" {
		txn.GuestSessionToken = &token
	}

	if err := tx.Transactions.Create(ctx, txn); err != nil {
		if errors.Is(err, repository.ErrTransactionAlreadyExists) {
			// Another webhook for the same payment committed first. Re-read
			// under lock and treat this as an update of the existing row.
			existing, findErr := tx.Transactions.FindByMerchantTxnID(ctx, n.Gateway, n.MerchantTxnID, true)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return txn, true, nil
}

// applyRefund handles the additive refund sub-flow. Refunds never move the
// transaction status away from completed; they accumulate on the refunded
// counters and append negative ledger entries.
func (s *WebhookService) applyRefund(
	ctx context.Context,
	tx *repository.Repos,
	txn *entity.PaymentTransaction,
	n *gateway.Notification,
	requestID string,
	now time.Time,
) (*applyResult, error) {
	if txn.Status != entity.PaymentStatusCompleted {
		return nil, errStaleEvent
	}
	if n.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: non-positive refund amount", ErrRefundExceedsBalance)
	}
	if n.AmountCents > txn.RemainingRefundableCents() {
		return nil, fmt.Errorf("%w: requested %d, refundable %d",
			ErrRefundExceedsBalance, n.AmountCents, txn.RemainingRefundableCents())
	}

	var ref *string
	if trimmed := strings.TrimSpace(n.GatewayTxnRef); trimmed != "" {
		ref = &trimmed
	}
	if err := tx.Ledger.Append(ctx, &entity.PaymentLedgerEntry{
		EntryID:       uuid.NewString(),
		TransactionID: txn.ID,
		AmountCents:   -n.AmountCents,
		Currency:      txn.Currency,
		Kind:          entity.LedgerKindRefund,
		GatewayTxnRef: ref,
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	txn.RefundedCents += n.AmountCents
	txn.RefundCount++
	s.markForNotify(txn, now)
	txn.UpdatedAt = now

	if err := tx.Transactions.Update(ctx, txn); err != nil {
		return nil, err
	}

	// A fully refunded payment moves its quotes to refunded. Partial refunds
	// leave the quotes paid.
	if txn.RemainingRefundableCents() == 0 {
		for _, quoteID := range txn.QuoteIDs {
			quote, err := tx.Quotes.FindByID(ctx, quoteID, true)
			if err != nil {
				return nil, err
			}
			if !entity.AllowedQuoteTransition(quote.Status, entity.QuoteStatusRefunded) {
				continue
			}
			quote.Status = entity.QuoteStatusRefunded
			quote.UpdatedAt = now
			if err := tx.Quotes.Update(ctx, quote); err != nil {
				return nil, err
			}
		}
	}

	_ = tx.Events.Create(ctx, &entity.TransactionEvent{
		TransactionID: txn.ID,
		EventType:     "refund_applied",
		NewStatus:     txn.Status,
		RequestID:     &requestID,
		CreatedAt:     now,
	})

	return &applyResult{txn: txn}, nil
}

// applyQuoteAndSessionChanges propagates the payment status onto every
// correlated quote and the guest checkout session, all inside the caller's
// transaction. On payment failure with a bound guest session only the
// session expires; the quotes stay payable so the checkout link can be
// retried.
func (s *WebhookService) applyQuoteAndSessionChanges(
	ctx context.Context,
	tx *repository.Repos,
	txn *entity.PaymentTransaction,
	status entity.PaymentStatus,
	shipping map[string]int64,
	now time.Time,
) error {
	var session *entity.GuestCheckoutSession
	if txn.GuestSessionToken != nil {
		found, err := tx.Sessions.FindByToken(ctx, *txn.GuestSessionToken, true)
		if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			return err
		}
		session = found
	}

	failureClass := status == entity.PaymentStatusFailed ||
		status == entity.PaymentStatusCancelled ||
		status == entity.PaymentStatusExpired

	if session != nil && session.Status == entity.SessionStatusActive && failureClass {
		session.Status = entity.SessionStatusExpired
		session.UpdatedAt = now
		if err := tx.Sessions.Update(ctx, session); err != nil {
			return err
		}
		return nil
	}

	targetQuoteStatus := entity.QuoteStatusForPayment(status)
	if targetQuoteStatus == 0 {
		return nil
	}

	for _, quoteID := range txn.QuoteIDs {
		quote, err := tx.Quotes.FindByID(ctx, quoteID, true)
		if err != nil {
			return err
		}

		if !entity.AllowedQuoteTransition(quote.Status, targetQuoteStatus) {
			s.logger.WithFields(logrus.Fields{
				"quote_id":     quoteID,
				"quote_status": quote.Status.String(),
				"target":       targetQuoteStatus.String(),
			}).Info("skipping disallowed quote transition")
			continue
		}

		quote.Status = targetQuoteStatus
		if session != nil && status == entity.PaymentStatusCompleted {
			bindGuestDetails(quote, session)
		}
		quote.UpdatedAt = now
		if err := tx.Quotes.Update(ctx, quote); err != nil {
			return err
		}

		if targetQuoteStatus == entity.QuoteStatusPaid {
			if err := s.createOrderForQuote(ctx, tx, txn, quote, shipping[quoteID], now); err != nil {
				return err
			}
		}
	}

	if session != nil && session.Status == entity.SessionStatusActive && status == entity.PaymentStatusCompleted {
		session.Status = entity.SessionStatusCompleted
		session.UpdatedAt = now
		if err := tx.Sessions.Update(ctx, session); err != nil {
			return err
		}
	}

	return nil
}

func (s *WebhookService) createOrderForQuote(
	ctx context.Context,
	tx *repository.Repos,
	txn *entity.PaymentTransaction,
	quote *entity.Quote,
	shippingCents int64,
	now time.Time,
) error {
	exists, err := tx.Orders.ExistsForQuote(ctx, quote.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = tx.Orders.Create(ctx, &entity.Order{
		QuoteID:       quote.ID,
		TransactionID: txn.ID,
		SubtotalCents: quote.SubtotalCents,
		ShippingCents: shippingCents,
		TotalCents:    quote.SubtotalCents + shippingCents,
		Currency:      quote.Currency,
		Status:        entity.OrderStatusCreated,
		CreatedAt:     now,
	})
	if errors.Is(err, repository.ErrOrderAlreadyExists) {
		return nil
	}
	return err
}

func bindGuestDetails(quote *entity.Quote, session *entity.GuestCheckoutSession) {
	if v := strings.TrimSpace(session.GuestName); v != "" {
		quote.GuestName = &v
	}
	if v := strings.TrimSpace(session.GuestEmail); v != "" {
		quote.GuestEmail = &v
	}
	if v := strings.TrimSpace(session.GuestPhone); v != "" {
		quote.GuestPhone = &v
	}
	if v := strings.TrimSpace(session.ShippingAddress); v != "" {
		quote.ShippingAddress = &v
	}
}

func (s *WebhookService) markForNotify(txn *entity.PaymentTransaction, now time.Time) {
	txn.NotifyStatus = entity.NotifyDeliveryPending
	txn.NotifyAttempts = 0
	txn.NotifyNextAt = &now
	txn.NotifyLastErr = nil
}
