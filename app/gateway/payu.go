package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

type PayUConfig struct {
	MerchantKey  string
	MerchantSalt string
}

// PayU verifies and normalizes PayU payment-status webhooks. PayU signs the
// response with the published reverse ordering
//
//	sha512(salt|status||||||udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key)
//
// prefixed with "additionalCharges|" when that field is present.
type PayU struct {
	cfg PayUConfig
}

func NewPayU(cfg PayUConfig) *PayU {
	return &PayU{cfg: cfg}
}

var payuReverseOrder = []string{
	"status", "", "", "", "", "",
	"udf5", "udf4", "udf3", "udf2", "udf1",
	"email", "firstname", "productinfo", "amount", "txnid",
}

func (p *PayU) Name() string {
	return "payu"
}

func (p *PayU) VerifySignature(fields Fields) error {
	additional := fields.Get("additionalCharges")
	if additional == "" {
		return verifyReverseHash(p.cfg.MerchantSalt, p.cfg.MerchantKey, fields, payuReverseOrder, fields.Get("hash"))
	}

	// With additionalCharges the digest covers one extra leading segment.
	if strings.TrimSpace(p.cfg.MerchantSalt) == "" || strings.TrimSpace(p.cfg.MerchantKey) == "" {
		return ErrMissingCredentials
	}
	supplied := strings.ToLower(fields.Get("hash"))
	if supplied == "" {
		return ErrSignatureMismatch
	}

	parts := make([]string, 0, len(payuReverseOrder)+3)
	parts = append(parts, additional, p.cfg.MerchantSalt)
	for _, name := range payuReverseOrder {
		if name == "" {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, fields.Get(name))
	}
	parts = append(parts, p.cfg.MerchantKey)

	expected := sha512.Sum512([]byte(strings.Join(parts, "|")))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(hex.EncodeToString(expected[:]))) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}

func (p *PayU) MapStatus(raw string) (entity.PaymentStatus, Kind) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "captured":
		return entity.PaymentStatusCompleted, KindCapture
	case "pending":
		return entity.PaymentStatusPending, KindCapture
	case "in progress", "initiated", "auth":
		return entity.PaymentStatusProcessing, KindCapture
	case "failure", "failed", "bounced":
		return entity.PaymentStatusFailed, KindCapture
	case "dropped", "usercancelled", "cancelled":
		return entity.PaymentStatusCancelled, KindCapture
	case "expired", "timedout":
		return entity.PaymentStatusExpired, KindCapture
	case "refund", "refunded":
		return entity.PaymentStatusCompleted, KindRefund
	default:
		return entity.PaymentStatusUnknown, KindCapture
	}
}

func (p *PayU) ExtractCorrelationIDs(fields Fields) []string {
	return ResolveCorrelationIDs(fields.Get("productinfo"), fields.Get("mihpayid"))
}

func (p *PayU) Parse(fields Fields) (*Notification, error) {
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

	status, kind := p.MapStatus(fields.Get("status"))

	return &Notification{
		Gateway:       p.Name(),
		MerchantTxnID: txnID,
		GatewayTxnRef: fields.Get("mihpayid"),
		Kind:          kind,
		Status:        status,
		RawStatus:     fields.Get("status"),
		AmountCents:   amountCents,
		Currency:      currency,
		QuoteIDs:      p.ExtractCorrelationIDs(fields),
		GuestToken:    fields.Get("udf2"),
		CustomerName:  fields.Get("firstname"),
		CustomerEmail: fields.Get("email"),
	}, nil
}
