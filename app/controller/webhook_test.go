package controller

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-webhooks/app/entity"
	"github.com/vibast-solutions/ms-go-webhooks/app/gateway"
	"github.com/vibast-solutions/ms-go-webhooks/app/pricing"
	"github.com/vibast-solutions/ms-go-webhooks/app/replay"
	"github.com/vibast-solutions/ms-go-webhooks/app/repository"
	"github.com/vibast-solutions/ms-go-webhooks/app/service"
	"github.com/vibast-solutions/ms-go-webhooks/app/types"
	"github.com/vibast-solutions/ms-go-webhooks/config"
)

const (
	ctrlKey   = "merchant-key"
	ctrlSalt  = "merchant-salt"
	ctrlQuote = "7b5dbb3a-05f5-4430-90f1-1a6f0c0b5c6a"
)

type ctrlState struct {
	txns   map[uint64]*entity.PaymentTransaction
	next   uint64
	quotes map[string]*entity.Quote
	logs   []*entity.WebhookLog
	ledger []*entity.PaymentLedgerEntry
	orders map[string]*entity.Order
}

type ctrlTxns struct{ s *ctrlState }

func (r *ctrlTxns) Create(_ context.Context, txn *entity.PaymentTransaction) error {
	id := r.s.next
	r.s.next++
	item := *txn
	item.ID = id
	r.s.txns[id] = &item
	txn.ID = id
	return nil
}

func (r *ctrlTxns) Update(_ context.Context, txn *entity.PaymentTransaction) error {
	item := *txn
	r.s.txns[txn.ID] = &item
	return nil
}

func (r *ctrlTxns) FindByID(_ context.Context, id uint64) (*entity.PaymentTransaction, error) {
	item, ok := r.s.txns[id]
	if !ok {
		return nil, repository.ErrTransactionNotFound
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *ctrlTxns) FindByMerchantTxnID(_ context.Context, gatewayName, merchantTxnID string, _ bool) (*entity.PaymentTransaction, error) {
	for _, item := range r.s.txns {
		if item.Gateway == gatewayName && item.MerchantTxnID == merchantTxnID {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, repository.ErrTransactionNotFound
}

func (r *ctrlTxns) List(_ context.Context, _ repository.TransactionFilter) ([]*entity.PaymentTransaction, error) {
	items := make([]*entity.PaymentTransaction, 0, len(r.s.txns))
	for _, item := range r.s.txns {
		copyItem := *item
		items = append(items, &copyItem)
	}
	return items, nil
}

func (r *ctrlTxns) ListDueNotify(_ context.Context, _ time.Time, _ int32) ([]*entity.PaymentTransaction, error) {
	return []*entity.PaymentTransaction{}, nil
}

type ctrlLedger struct{ s *ctrlState }

func (r *ctrlLedger) Append(_ context.Context, entry *entity.PaymentLedgerEntry) error {
	item := *entry
	r.s.ledger = append(r.s.ledger, &item)
	return nil
}

func (r *ctrlLedger) ListByTransaction(_ context.Context, _ uint64) ([]*entity.PaymentLedgerEntry, error) {
	return append([]*entity.PaymentLedgerEntry{}, r.s.ledger...), nil
}

type ctrlQuotes struct{ s *ctrlState }

func (r *ctrlQuotes) FindByID(_ context.Context, id string, _ bool) (*entity.Quote, error) {
	item, ok := r.s.quotes[id]
	if !ok {
		return nil, repository.ErrQuoteNotFound
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *ctrlQuotes) Update(_ context.Context, quote *entity.Quote) error {
	item := *quote
	r.s.quotes[quote.ID] = &item
	return nil
}

type ctrlSessions struct{}

func (r *ctrlSessions) FindByToken(_ context.Context, _ string, _ bool) (*entity.GuestCheckoutSession, error) {
	return nil, repository.ErrSessionNotFound
}

func (r *ctrlSessions) Update(_ context.Context, _ *entity.GuestCheckoutSession) error { return nil }

func (r *ctrlSessions) ListStaleActive(_ context.Context, _ time.Time, _ int32) ([]*entity.GuestCheckoutSession, error) {
	return []*entity.GuestCheckoutSession{}, nil
}

type ctrlOrders struct{ s *ctrlState }

func (r *ctrlOrders) Create(_ context.Context, order *entity.Order) error {
	item := *order
	r.s.orders[order.QuoteID] = &item
	return nil
}

func (r *ctrlOrders) ExistsForQuote(_ context.Context, quoteID string) (bool, error) {
	_, ok := r.s.orders[quoteID]
	return ok, nil
}

type ctrlEvents struct{}

func (r *ctrlEvents) Create(_ context.Context, _ *entity.TransactionEvent) error { return nil }

type ctrlLogs struct{ s *ctrlState }

func (r *ctrlLogs) Create(_ context.Context, log *entity.WebhookLog) error {
	item := *log
	r.s.logs = append(r.s.logs, &item)
	return nil
}

func (r *ctrlLogs) List(_ context.Context, _ repository.WebhookLogFilter) ([]*entity.WebhookLog, error) {
	return append([]*entity.WebhookLog{}, r.s.logs...), nil
}

type ctrlStore struct {
	state *ctrlState
	repos *repository.Repos
}

func (cs *ctrlStore) Repos() *repository.Repos { return cs.repos }

func (cs *ctrlStore) InTransaction(_ context.Context, fn func(tx *repository.Repos) error) error {
	return fn(cs.repos)
}

func newTestController() (*WebhookController, *ctrlState) {
	state := &ctrlState{
		txns:   map[uint64]*entity.PaymentTransaction{},
		next:   1,
		quotes: map[string]*entity.Quote{},
		orders: map[string]*entity.Order{},
	}
	state.quotes[ctrlQuote] = &entity.Quote{
		ID:            ctrlQuote,
		Status:        entity.QuoteStatusAwaitingPayment,
		SubtotalCents: 2550,
		Currency:      "INR",
	}

	store := &ctrlStore{
		state: state,
		repos: &repository.Repos{
			Transactions: &ctrlTxns{s: state},
			Ledger:       &ctrlLedger{s: state},
			Quotes:       &ctrlQuotes{s: state},
			Sessions:     &ctrlSessions{},
			Orders:       &ctrlOrders{s: state},
			Events:       &ctrlEvents{},
			WebhookLogs:  &ctrlLogs{s: state},
		},
	}

	registry := gateway.NewRegistry(gateway.NewPayU(gateway.PayUConfig{MerchantKey: ctrlKey, MerchantSalt: ctrlSalt}))

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc := service.NewWebhookService(
		store,
		registry,
		replay.NewMemoryGuard(5*time.Minute),
		pricing.Static{Cents: 500},
		config.WebhooksConfig{ReplayWindow: 5 * time.Minute, JobBatchSize: 100},
		config.NotifyConfig{MaxAttempts: 3, RetryInterval: time.Minute, HTTPTimeout: time.Second},
		config.SessionsConfig{TTL: time.Hour},
		logger,
	)

	return NewWebhookController(svc, 30*time.Second, "webhooks-test"), state
}

func signedForm(overrides map[string]string) url.Values {
	fields := map[string]string{
		"txnid":       "TXN-1001",
		"amount":      "25.50",
		"productinfo": "Garden furniture (" + ctrlQuote + ")",
		"firstname":   "Asha",
		"email":       "asha@example.com",
		"status":      "success",
		"mihpayid":    "403993715531",
	}
	for key, value := range overrides {
		fields[key] = value
	}

	order := []string{
		"status", "", "", "", "", "",
		"udf5", "udf4", "udf3", "udf2", "udf1",
		"email", "firstname", "productinfo", "amount", "txnid",
	}
	parts := []string{ctrlSalt}
	for _, name := range order {
		parts = append(parts, fields[name])
	}
	parts = append(parts, ctrlKey)
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	fields["hash"] = hex.EncodeToString(sum[:])

	values := url.Values{}
	for key, value := range fields {
		values.Set(key, value)
	}
	return values
}

func postWebhook(t *testing.T, ctrl *WebhookController, gatewayName, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/gateways/"+gatewayName, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderXRequestID, "req-test-1")
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("gateway")
	ctx.SetParamValues(gatewayName)

	if err := ctrl.HandleGatewayWebhook(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeWebhookResponse(t *testing.T, rec *httptest.ResponseRecorder) *types.WebhookResponse {
	t.Helper()
	var resp types.WebhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return &resp
}

func TestHealth(t *testing.T) {
	ctrl, _ := newTestController()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	if err := ctrl.Health(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleGatewayWebhookSuccess(t *testing.T) {
	ctrl, state := newTestController()

	rec := postWebhook(t, ctrl, "payu", signedForm(nil).Encode(), echo.MIMEApplicationForm)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeWebhookResponse(t, rec)
	if !resp.Success || resp.RequestId != "req-test-1" {
		t.Errorf("response = %+v", resp)
	}
	if state.quotes[ctrlQuote].Status != entity.QuoteStatusPaid {
		t.Errorf("quote status = %v", state.quotes[ctrlQuote].Status)
	}
}

func TestHandleGatewayWebhookJSONBody(t *testing.T) {
	ctrl, _ := newTestController()

	fields := signedForm(nil)
	payload := map[string]string{}
	for key := range fields {
		payload[key] = fields.Get(key)
	}
	body, _ := json.Marshal(payload)

	rec := postWebhook(t, ctrl, "payu", string(body), echo.MIMEApplicationJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleGatewayWebhookBadSignature(t *testing.T) {
	ctrl, state := newTestController()

	form := signedForm(nil)
	form.Set("amount", "1.00")

	rec := postWebhook(t, ctrl, "payu", form.Encode(), echo.MIMEApplicationForm)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	resp := decodeWebhookResponse(t, rec)
	if resp.Success || !strings.Contains(resp.Message, "hash mismatch") {
		t.Errorf("response = %+v", resp)
	}
	if state.quotes[ctrlQuote].Status != entity.QuoteStatusAwaitingPayment {
		t.Error("quote mutated by rejected webhook")
	}
}

func TestHandleGatewayWebhookMalformedBody(t *testing.T) {
	ctrl, state := newTestController()

	rec := postWebhook(t, ctrl, "payu", "", echo.MIMEApplicationForm)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(state.logs) != 1 || state.logs[0].Status != entity.WebhookLogRejected {
		t.Errorf("expected one rejected log row, got %+v", state.logs)
	}
}

func TestHandleGatewayWebhookUnsupportedGateway(t *testing.T) {
	ctrl, _ := newTestController()

	rec := postWebhook(t, ctrl, "razorpay", signedForm(nil).Encode(), echo.MIMEApplicationForm)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	ctrl, _ := newTestController()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/transactions/42", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("42")

	if err := ctrl.GetTransaction(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListTransactions(t *testing.T) {
	ctrl, state := newTestController()
	state.txns[1] = &entity.PaymentTransaction{ID: 1, Gateway: "payu", MerchantTxnID: "TXN-1", Status: entity.PaymentStatusCompleted}
	state.next = 2

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()

	if err := ctrl.ListTransactions(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp types.TransactionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(resp.Transactions) != 1 {
		t.Errorf("transactions = %d, want 1", len(resp.Transactions))
	}
}

func TestListWebhookLogsRejectsBadLimit(t *testing.T) {
	ctrl, _ := newTestController()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/webhook-logs?limit=9999", nil)
	rec := httptest.NewRecorder()

	if err := ctrl.ListWebhookLogs(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
