package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-webhooks/app/gateway"
)

// GatewayWebhookRequest is one inbound webhook request, decoded from either
// a JSON object or a form-urlencoded body into a flat field map. A body that
// cannot be decoded still yields a request (so it can be audited); the
// decode error surfaces through Validate.
type GatewayWebhookRequest struct {
	RequestId string
	Gateway   string
	Fields    gateway.Fields
	RawBody   string

	parseErr error
}

func NewGatewayWebhookRequestFromContext(ctx echo.Context) *GatewayWebhookRequest {
	req := &GatewayWebhookRequest{
		Gateway: strings.ToLower(strings.TrimSpace(ctx.Param("gateway"))),
		Fields:  gateway.Fields{},
	}

	req.RequestId = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	if req.RequestId == "" {
		req.RequestId = uuid.NewString()
	}

	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		req.parseErr = fmt.Errorf("reading request body: %w", err)
		return req
	}
	req.RawBody = string(body)
	if len(strings.TrimSpace(req.RawBody)) == 0 {
		req.parseErr = errors.New("empty request body")
		return req
	}

	contentType := ctx.Request().Header.Get(echo.HeaderContentType)
	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch {
	case strings.Contains(mediaType, "json"):
		req.parseErr = decodeJSONFields(body, req.Fields)
	default:
		req.parseErr = decodeFormFields(req.RawBody, req.Fields)
	}

	return req
}

func decodeJSONFields(body []byte, fields gateway.Fields) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}

	for key, value := range raw {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case float64:
			fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			fields[key] = strconv.FormatBool(v)
		case nil:
			fields[key] = ""
		default:
			// Nested objects and arrays have no place in a gateway
			// notification; keep the raw JSON so verification fails loudly.
			encoded, _ := json.Marshal(v)
			fields[key] = string(encoded)
		}
	}
	return nil
}

func decodeFormFields(body string, fields gateway.Fields) error {
	values, err := url.ParseQuery(body)
	if err != nil {
		return fmt.Errorf("invalid form body: %w", err)
	}
	if len(values) == 0 {
		return errors.New("empty form body")
	}

	for key := range values {
		fields[key] = values.Get(key)
	}
	return nil
}

func (r *GatewayWebhookRequest) GetRequestId() string {
	if r == nil {
		return ""
	}
	return r.RequestId
}

func (r *GatewayWebhookRequest) GetGateway() string {
	if r == nil {
		return ""
	}
	return r.Gateway
}

func (r *GatewayWebhookRequest) GetFields() gateway.Fields {
	if r == nil {
		return nil
	}
	return r.Fields
}

func (r *GatewayWebhookRequest) GetRawBody() string {
	if r == nil {
		return ""
	}
	return r.RawBody
}

func (r *GatewayWebhookRequest) Validate() error {
	if strings.TrimSpace(r.GetGateway()) == "" {
		return errors.New("gateway is required")
	}
	if r.parseErr != nil {
		return r.parseErr
	}
	if len(r.Fields) == 0 {
		return errors.New("payload has no fields")
	}
	return nil
}

type GetTransactionRequest struct {
	Id uint64
}

func NewGetTransactionRequestFromContext(ctx echo.Context) (*GetTransactionRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetTransactionRequest{Id: id}, nil
}

func (r *GetTransactionRequest) GetId() uint64 {
	if r == nil {
		return 0
	}
	return r.Id
}

func (r *GetTransactionRequest) Validate() error {
	if r.GetId() == 0 {
		return errors.New("invalid transaction id")
	}
	return nil
}

type ListTransactionsRequest struct {
	Gateway       string
	MerchantTxnId string
	HasStatus     bool
	Status        int32
	Limit         int32
	Offset        int32
}

func NewListTransactionsRequestFromContext(ctx echo.Context) (*ListTransactionsRequest, error) {
	req := &ListTransactionsRequest{
		Gateway:       strings.ToLower(strings.TrimSpace(ctx.QueryParam("gateway"))),
		MerchantTxnId: strings.TrimSpace(ctx.QueryParam("merchant_txn_id")),
		Limit:         100,
	}

	if statusRaw := strings.TrimSpace(ctx.QueryParam("status")); statusRaw != "" {
		status, err := strconv.ParseInt(statusRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.HasStatus = true
		req.Status = int32(status)
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListTransactionsRequest) GetGateway() string {
	if r == nil {
		return ""
	}
	return r.Gateway
}

func (r *ListTransactionsRequest) GetMerchantTxnId() string {
	if r == nil {
		return ""
	}
	return r.MerchantTxnId
}

func (r *ListTransactionsRequest) GetHasStatus() bool {
	if r == nil {
		return false
	}
	return r.HasStatus
}

func (r *ListTransactionsRequest) GetStatus() int32 {
	if r == nil {
		return 0
	}
	return r.Status
}

func (r *ListTransactionsRequest) GetLimit() int32 {
	if r == nil {
		return 0
	}
	return r.Limit
}

func (r *ListTransactionsRequest) GetOffset() int32 {
	if r == nil {
		return 0
	}
	return r.Offset
}

func (r *ListTransactionsRequest) Validate() error {
	if r.GetLimit() <= 0 || r.GetLimit() > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.GetOffset() < 0 {
		return errors.New("offset must be >= 0")
	}
	return nil
}

type ListWebhookLogsRequest struct {
	Gateway   string
	RequestId string
	HasStatus bool
	Status    int32
	Limit     int32
	Offset    int32
}

func NewListWebhookLogsRequestFromContext(ctx echo.Context) (*ListWebhookLogsRequest, error) {
	req := &ListWebhookLogsRequest{
		Gateway:   strings.ToLower(strings.TrimSpace(ctx.QueryParam("gateway"))),
		RequestId: strings.TrimSpace(ctx.QueryParam("request_id")),
		Limit:     100,
	}

	if statusRaw := strings.TrimSpace(ctx.QueryParam("status")); statusRaw != "" {
		status, err := strconv.ParseInt(statusRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.HasStatus = true
		req.Status = int32(status)
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListWebhookLogsRequest) GetGateway() string {
	if r == nil {
		return ""
	}
	return r.Gateway
}

func (r *ListWebhookLogsRequest) GetRequestId() string {
	if r == nil {
		return ""
	}
	return r.RequestId
}

func (r *ListWebhookLogsRequest) GetHasStatus() bool {
	if r == nil {
		return false
	}
	return r.HasStatus
}

func (r *ListWebhookLogsRequest) GetStatus() int32 {
	if r == nil {
		return 0
	}
	return r.Status
}

func (r *ListWebhookLogsRequest) GetLimit() int32 {
	if r == nil {
		return 0
	}
	return r.Limit
}

func (r *ListWebhookLogsRequest) GetOffset() int32 {
	if r == nil {
		return 0
	}
	return r.Offset
}

func (r *ListWebhookLogsRequest) Validate() error {
	if r.GetLimit() <= 0 || r.GetLimit() > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.GetOffset() < 0 {
		return errors.New("offset must be >= 0")
	}
	return nil
}
