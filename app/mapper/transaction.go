package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
	"github.com/vibast-solutions/ms-go-webhooks/app/types"
)

func TransactionToResponse(item *entity.PaymentTransaction) *types.TransactionResponse {
	if item == nil {
		return nil
	}

	return &types.TransactionResponse{
		Id:            item.ID,
		Gateway:       item.Gateway,
		MerchantTxnId: item.MerchantTxnID,
		GatewayTxnRef: derefString(item.GatewayTxnRef),
		AmountCents:   item.AmountCents,
		Currency:      item.Currency,
		Status:        int32(item.Status),
		StatusLabel:   item.Status.String(),
		QuoteIds:      cloneStrings(item.QuoteIDs),
		RefundedCents: item.RefundedCents,
		RefundCount:   item.RefundCount,
		CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func TransactionsToResponse(items []*entity.PaymentTransaction) []*types.TransactionResponse {
	result := make([]*types.TransactionResponse, 0, len(items))
	for _, item := range items {
		result = append(result, TransactionToResponse(item))
	}
	return result
}

func LedgerEntryToResponse(item *entity.PaymentLedgerEntry) *types.LedgerEntryResponse {
	if item == nil {
		return nil
	}

	return &types.LedgerEntryResponse{
		EntryId:       item.EntryID,
		TransactionId: item.TransactionID,
		AmountCents:   item.AmountCents,
		Currency:      item.Currency,
		Kind:          item.Kind,
		GatewayTxnRef: derefString(item.GatewayTxnRef),
		CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func LedgerEntriesToResponse(items []*entity.PaymentLedgerEntry) []*types.LedgerEntryResponse {
	result := make([]*types.LedgerEntryResponse, 0, len(items))
	for _, item := range items {
		result = append(result, LedgerEntryToResponse(item))
	}
	return result
}

func WebhookLogToResponse(item *entity.WebhookLog) *types.WebhookLogResponse {
	if item == nil {
		return nil
	}

	return &types.WebhookLogResponse{
		Id:            item.ID,
		RequestId:     item.RequestID,
		Gateway:       item.Gateway,
		MerchantTxnId: derefString(item.MerchantTxnID),
		Status:        item.Status,
		Error:         derefString(item.Error),
		PayloadJson:   derefString(item.PayloadJSON),
		ProcessingMs:  item.ProcessingMs,
		CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func WebhookLogsToResponse(items []*entity.WebhookLog) []*types.WebhookLogResponse {
	result := make([]*types.WebhookLogResponse, 0, len(items))
	for _, item := range items {
		result = append(result, WebhookLogToResponse(item))
	}
	return result
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cloneStrings(src []string) []string {
	if len(src) == 0 {
		return []string{}
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}
