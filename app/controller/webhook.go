package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-webhooks/app/factory"
	"github.com/vibast-solutions/ms-go-webhooks/app/mapper"
	"github.com/vibast-solutions/ms-go-webhooks/app/service"
	"github.com/vibast-solutions/ms-go-webhooks/app/types"
)

type WebhookController struct {
	webhookService    *service.WebhookService
	processingTimeout time.Duration
	serviceName       string
	logger            logrus.FieldLogger
}

func NewWebhookController(webhookService *service.WebhookService, processingTimeout time.Duration, serviceName string) *WebhookController {
	if processingTimeout <= 0 {
		processingTimeout = 30 * time.Second
	}

	return &WebhookController{
		webhookService:    webhookService,
		processingTimeout: processingTimeout,
		serviceName:       serviceName,
		logger:            factory.NewModuleLogger("webhooks-controller"),
	}
}

func (c *WebhookController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok", Service: c.serviceName})
}

// HandleGatewayWebhook receives one gateway notification. The response is
// always a small JSON acknowledgement; gateways retry on anything but 200,
// so the body distinguishes applied from intentionally ignored requests.
func (c *WebhookController) HandleGatewayWebhook(ctx echo.Context) error {
	started := time.Now()

	req := types.NewGatewayWebhookRequestFromContext(ctx)
	reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), c.processingTimeout)
	defer cancel()

	if err := req.Validate(); err != nil {
		c.webhookService.RejectMalformed(reqCtx, req, err)
		return c.writeWebhookError(ctx, http.StatusBadRequest, req.GetRequestId(), err.Error(), started)
	}

	result, err := c.webhookService.HandleGatewayWebhook(reqCtx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGatewayUnsupported),
			errors.Is(err, service.ErrSignatureMismatch),
			errors.Is(err, service.ErrWebhookRejected),
			errors.Is(err, service.ErrRefundExceedsBalance),
			errors.Is(err, service.ErrInvalidRequest):
			return c.writeWebhookError(ctx, http.StatusBadRequest, req.GetRequestId(), err.Error(), started)
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle gateway webhook failed")
			return c.writeWebhookError(ctx, http.StatusInternalServerError, req.GetRequestId(), "internal server error", started)
		}
	}

	return ctx.JSON(http.StatusOK, &types.WebhookResponse{
		Success:          true,
		Message:          result.Message,
		RequestId:        req.GetRequestId(),
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	})
}

func (c *WebhookController) GetTransaction(ctx echo.Context) error {
	req, err := types.NewGetTransactionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	txn, entries, err := c.webhookService.GetTransaction(ctx.Request().Context(), req.GetId())
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "transaction not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get transaction failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.TransactionEnvelopeResponse{
		Transaction: mapper.TransactionToResponse(txn),
		Ledger:      mapper.LedgerEntriesToResponse(entries),
	})
}

func (c *WebhookController) ListTransactions(ctx echo.Context) error {
	req, err := types.NewListTransactionsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.webhookService.ListTransactions(ctx.Request().Context(), req)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List transactions failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.TransactionListResponse{Transactions: mapper.TransactionsToResponse(items)})
}

func (c *WebhookController) ListWebhookLogs(ctx echo.Context) error {
	req, err := types.NewListWebhookLogsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.webhookService.ListWebhookLogs(ctx.Request().Context(), req)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List webhook logs failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.WebhookLogListResponse{Logs: mapper.WebhookLogsToResponse(items)})
}

func (c *WebhookController) writeWebhookError(ctx echo.Context, statusCode int, requestID, message string, started time.Time) error {
	return ctx.JSON(statusCode, &types.WebhookResponse{
		Success:          false,
		Message:          message,
		RequestId:        requestID,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	})
}

func (c *WebhookController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
