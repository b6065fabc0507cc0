package gateway

import (
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

type EasebuzzConfig struct {
	MerchantKey  string
	MerchantSalt string
}

// Easebuzz shares PayU's reverse-hash scheme but carries its own key/salt
// pair, its own transaction reference field and a slightly different status
// vocabulary.
type Easebuzz struct {
	cfg EasebuzzConfig
}

func NewEasebuzz(cfg EasebuzzConfig) *Easebuzz {
	return &Easebuzz{cfg: cfg}
}

var easebuzzReverseOrder = []string{
	"status", "", "", "", "", "",
	"udf5", "udf4", "udf3", "udf2", "udf1",
	"email", "firstname", "productinfo", "amount", "txnid",
}

func (e *Easebuzz) Name() string {
	return "easebuzz"
}

func (e *Easebuzz) VerifySignature(fields Fields) error {
	return verifyReverseHash(e.cfg.MerchantSalt, e.cfg.MerchantKey, fields, easebuzzReverseOrder, fields.Get("hash"))
}

func (e *Easebuzz) MapStatus(raw string) (entity.PaymentStatus, Kind) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success":
		return entity.PaymentStatusCompleted, KindCapture
	case "pending":
		return entity.PaymentStatusPending, KindCapture
	case "initiated":
		return entity.PaymentStatusProcessing, KindCapture
	case "failure", "failed", "bounced":
		return entity.PaymentStatusFailed, KindCapture
	case "usercancelled", "dropped":
		return entity.PaymentStatusCancelled, KindCapture
	case "expired":
		return entity.PaymentStatusExpired, KindCapture
	case "refunded", "refund":
		return entity.PaymentStatusCompleted, KindRefund
	default:
		return entity.PaymentStatusUnknown, KindCapture
	}
}

func (e *Easebuzz) ExtractCorrelationIDs(fields Fields) []string {
	return ResolveCorrelationIDs(fields.Get("productinfo"), fields.Get("easepayid"))
}

func (e *Easebuzz) Parse(fields Fields) (*Notification, error) {
	txnID := fields.Get("txnid")
	if txnID == "" {
		return nil, fmt.Errorf("%w: txnid is missing", ErrMalformedPayload)
	}

	amountCents, err := ParseAmountCents(fields.Get("amount"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	currency := strings.ToUpper(fields.Get("currency"))
	if currency == "" {
		currency = "INR"
	}

	status, kind := e.MapStatus(fields.Get("status"))

	return &Notification{
		Gateway:       e.Name(),
		MerchantTxnID: txnID,
		GatewayTxnRef: fields.Get("easepayid"),
		Kind:          kind,
		Status:        status,
		RawStatus:     fields.Get("status"),
		AmountCents:   amountCents,
		Currency:      currency,
		QuoteIDs:      e.ExtractCorrelationIDs(fields),
		GuestToken:    fields.Get("udf2"),
		CustomerName:  fields.Get("firstname"),
		CustomerEmail: fields.Get("email"),
	}, nil
}
