//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// GetGatewayURL returns the base URL of a running `fvault serve`.
func GetGatewayURL() string {
	if v := strings.TrimSpace(os.Getenv("FILEVAULT_GATEWAY_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:8545"
}

// SkipIfMissingGateway skips the test when no gateway answers /health.
func SkipIfMissingGateway(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if !IsGatewayReady(ctx) {
		t.Skipf("gateway not reachable at %s; start it with `fvault serve --connect`", GetGatewayURL())
	}
}

// IsGatewayReady reports whether /health answers 200.
func IsGatewayReady(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GetGatewayURL()+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := NewHTTPClient(3 * time.Second).Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// NewHTTPClient creates a client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// HTTPRequest is one JSON request against the gateway.
type HTTPRequest struct {
	Method string
	Path   string
	Body   interface{}
	// Timeout defaults to two minutes; writes wait for a mined receipt.
	Timeout time.Duration
}

// Do sends the request and returns the body and status code.
func (hr *HTTPRequest) Do(ctx context.Context) ([]byte, int, error) {
	var body io.Reader
	if hr.Body != nil {
		raw, err := json.Marshal(hr.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, hr.Method, GetGatewayURL()+hr.Path, body)
	if err != nil {
		return nil, 0, err
	}
	if hr.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	timeout := hr.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	resp, err := NewHTTPClient(timeout).Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return data, resp.StatusCode, err
}

// DecodeJSON unmarshals data into v.
func DecodeJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// DecodeJSONFrom decodes a response body into v.
func DecodeJSONFrom(resp *http.Response, v interface{}) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

// GenerateUniqueContent returns file content no other run has stored.
func GenerateUniqueContent(prefix string) []byte {
	return []byte(fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()))
}
