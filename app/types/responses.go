package types

// WebhookResponse acknowledges one webhook request back to the gateway.
type WebhookResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	RequestId        string `json:"requestId"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type TransactionResponse struct {
	Id            uint64   `json:"id"`
	Gateway       string   `json:"gateway"`
	MerchantTxnId string   `json:"merchantTxnId"`
	GatewayTxnRef string   `json:"gatewayTxnRef,omitempty"`
	AmountCents   int64    `json:"amountCents"`
	Currency      string   `json:"currency"`
	Status        int32    `json:"status"`
	StatusLabel   string   `json:"statusLabel"`
	QuoteIds      []string `json:"quoteIds"`
	RefundedCents int64    `json:"refundedCents"`
	RefundCount   int32    `json:"refundCount"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

type LedgerEntryResponse struct {
	EntryId       string `json:"entryId"`
	TransactionId uint64 `json:"transactionId"`
	AmountCents   int64  `json:"amountCents"`
	Currency      string `json:"currency"`
	Kind          int32  `json:"kind"`
	GatewayTxnRef string `json:"gatewayTxnRef,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// TransactionEnvelopeResponse is the downstream notification payload and the
// admin detail response body.
type TransactionEnvelopeResponse struct {
	Transaction *TransactionResponse   `json:"transaction"`
	Ledger      []*LedgerEntryResponse `json:"ledger,omitempty"`
}

type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
}

type WebhookLogResponse struct {
	Id            uint64 `json:"id"`
	RequestId     string `json:"requestId"`
	Gateway       string `json:"gateway"`
	MerchantTxnId string `json:"merchantTxnId,omitempty"`
	Status        int32  `json:"status"`
	Error         string `json:"error,omitempty"`
	PayloadJson   string `json:"payloadJson,omitempty"`
	ProcessingMs  int64  `json:"processingMs"`
	CreatedAt     string `json:"createdAt"`
}

type WebhookLogListResponse struct {
	Logs []*WebhookLogResponse `json:"logs"`
}
