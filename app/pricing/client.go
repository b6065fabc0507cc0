// Package pricing is the HTTP client for the shipping/pricing calculator
// collaborator. It is consulted only when a paid quote is turned into a
// downstream order.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Calculator interface {
	ShippingQuoteCents(ctx context.Context, quoteID string) (int64, error)
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) ShippingQuoteCents(ctx context.Context, quoteID string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quotes/"+url.PathEscape(quoteID)+"/shipping", nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("shipping quote failed: quote=%s status=%d body=%s", quoteID, resp.StatusCode, string(body))
	}

	var payload struct {
		ShippingCents int64 `json:"shippingCents"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, err
	}
	if payload.ShippingCents < 0 {
		return 0, fmt.Errorf("shipping quote failed: quote=%s negative amount", quoteID)
	}

	return payload.ShippingCents, nil
}

// Static is used when no calculator endpoint is configured; every order
// ships at the fixed amount.
type Static struct {
	Cents int64
}

func (s Static) ShippingQuoteCents(context.Context, string) (int64, error) {
	return s.Cents, nil
}
