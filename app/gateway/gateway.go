package gateway

import (
	"errors"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
)

var (
	ErrGatewayNotSupported = errors.New("gateway is not supported")
	ErrMissingCredentials  = errors.New("gateway credentials are not configured")
	ErrSignatureMismatch   = errors.New("hash mismatch: supplied hash does not match computed digest")
	ErrMalformedPayload    = errors.New("malformed payload")
)

// Kind distinguishes a capture notification from the additive refund sub-flow.
type Kind int32

const (
	KindCapture Kind = 1
	KindRefund  Kind = 2
)

// Notification is the gateway-agnostic form of a verified webhook payload.
type Notification struct {
	Gateway       string
	MerchantTxnID string
	GatewayTxnRef string

	Kind      Kind
	Status    entity.PaymentStatus
	RawStatus string

	AmountCents int64
	Currency    string

	QuoteIDs   []string
	GuestToken string

	CustomerName  string
	CustomerEmail string
}

// Adapter is implemented once per payment gateway. Everything the
// reconciliation core needs that varies between gateways lives behind it:
// the signature scheme, the status vocabulary, and where the correlation
// identifiers hide in the payload.
type Adapter interface {
	Name() string
	VerifySignature(fields Fields) error
	MapStatus(raw string) (entity.PaymentStatus, Kind)
	ExtractCorrelationIDs(fields Fields) []string
	Parse(fields Fields) (*Notification, error)
}

type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	items := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		items[a.Name()] = a
	}
	return &Registry{adapters: items}
}

func (r *Registry) Get(name string) (Adapter, error) {
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, ErrGatewayNotSupported
	}
	return adapter, nil
}
