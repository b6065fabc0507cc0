package service

import "errors"

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrGatewayUnsupported     = errors.New("gateway is not supported")
	ErrSignatureMismatch      = errors.New("hash mismatch: supplied hash does not match computed digest")
	ErrWebhookRejected        = errors.New("webhook rejected")
	ErrRefundExceedsBalance   = errors.New("refund amount exceeds refundable balance")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrReconciliationInternal = errors.New("reconciliation failed")
)

// errStaleEvent aborts the reconciliation transaction when a notification
// arrives out of order. It never reaches callers; the webhook is acknowledged
// so the gateway stops retrying it.
var errStaleEvent = errors.New("stale status transition")
