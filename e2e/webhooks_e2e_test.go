//go:build e2e
// +build e2e

package e2e

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"
)

const defaultWebhooksHTTPBase = "http://localhost:48080"

func webhooksHTTPBase() string {
	if v := os.Getenv("E2E_WEBHOOKS_HTTP_BASE"); v != "" {
		return v
	}
	return defaultWebhooksHTTPBase
}

func payuMerchantKey() string {
	if v := os.Getenv("E2E_PAYU_MERCHANT_KEY"); v != "" {
		return v
	}
	return "merchant-key"
}

func payuMerchantSalt() string {
	if v := os.Getenv("E2E_PAYU_MERCHANT_SALT"); v != "" {
		return v
	}
	return "merchant-salt"
}

type webhookAck struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	RequestId        string `json:"requestId"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

func signPayUForm(fields map[string]string) url.Values {
	order := []string{
		"status", "", "", "", "", "",
		"udf5", "udf4", "udf3", "udf2", "udf1",
		"email", "firstname", "productinfo", "amount", "txnid",
	}
	parts := []string{payuMerchantSalt()}
	for _, name := range order {
		parts = append(parts, fields[name])
	}
	parts = append(parts, payuMerchantKey())
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))

	values := url.Values{}
	for key, value := range fields {
		values.Set(key, value)
	}
	values.Set("hash", hex.EncodeToString(sum[:]))
	return values
}

func postPayUWebhook(t *testing.T, fields map[string]string) (*http.Response, *webhookAck) {
	t.Helper()

	body := signPayUForm(fields).Encode()
	req, err := http.NewRequest(http.MethodPost, webhooksHTTPBase()+"/webhooks/gateways/payu", strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-%d", time.Now().UnixNano()))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	var ack webhookAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		t.Fatalf("invalid ack body %q: %v", string(raw), err)
	}
	return resp, &ack
}

func TestWebhookLifecycle(t *testing.T) {
	txnID := fmt.Sprintf("E2E-%d", time.Now().UnixNano())
	fields := map[string]string{
		"txnid":       txnID,
		"amount":      "25.50",
		"productinfo": "E2E order (7b5dbb3a-05f5-4430-90f1-1a6f0c0b5c6a)",
		"firstname":   "Asha",
		"email":       "asha@example.com",
		"status":      "success",
		"mihpayid":    "403993715531",
	}

	resp, ack := postPayUWebhook(t, fields)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (message=%q)", resp.StatusCode, ack.Message)
	}
	if !ack.Success {
		t.Fatalf("ack = %+v", ack)
	}

	// A byte-identical replay is acknowledged but not re-applied.
	resp, ack = postPayUWebhook(t, fields)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(ack.Message, "duplicate") {
		t.Fatalf("replay message = %q, want duplicate notice", ack.Message)
	}
}

func TestWebhookRejectsTamperedSignature(t *testing.T) {
	txnID := fmt.Sprintf("E2E-%d", time.Now().UnixNano())
	values := signPayUForm(map[string]string{
		"txnid":       txnID,
		"amount":      "25.50",
		"productinfo": "E2E order (7b5dbb3a-05f5-4430-90f1-1a6f0c0b5c6a)",
		"firstname":   "Asha",
		"email":       "asha@example.com",
		"status":      "success",
	})
	values.Set("amount", "1.00")

	req, err := http.NewRequest(http.MethodPost, webhooksHTTPBase()+"/webhooks/gateways/payu", strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	resp, err := http.Get(webhooksHTTPBase() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
