package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPGateway posts payment orders to the gateway's REST API.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	breaker *Breaker
}

// NewHTTPGateway returns a gateway client with the given request timeout.
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: timeout},
		breaker: NewBreaker(5, 30*time.Second),
	}
}

type orderBody struct {
	BookingID   string   `json:"booking_id"`
	Amount      string   `json:"amount"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url"`
	Customer    Customer `json:"customer"`
}

// majorUnits renders minor units as a two-decimal major amount ("75.00").
func majorUnits(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// CreateOrder requests a payment page.  Any result other than OK is
// returned as an error wrapping ErrOrderFailed alongside the decoded result.
func (g *HTTPGateway) CreateOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if err := g.breaker.Allow(); err != nil {
		return OrderResult{}, fmt.Errorf("%w: %v", ErrOrderFailed, err)
	}
	res, healthy, err := g.post(ctx, req)
	g.breaker.Record(healthy)
	return res, err
}

// post reports healthy=false only when the gateway itself misbehaved
// (unreachable, 5xx, unreadable answer); declined orders are healthy.
func (g *HTTPGateway) post(ctx context.Context, req OrderRequest) (OrderResult, bool, error) {
	payload, err := json.Marshal(orderBody{
		BookingID:   req.BookingID,
		Amount:      majorUnits(req.Amount),
		Currency:    req.Currency,
		Description: req.Description,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Customer:    req.Customer,
	})
	if err != nil {
		return OrderResult{}, true, fmt.Errorf("%w: marshal: %v", ErrOrderFailed, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return OrderResult{}, true, fmt.Errorf("%w: new request: %v", ErrOrderFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.hc.Do(httpReq)
	if err != nil {
		return OrderResult{}, false, fmt.Errorf("%w: %v", ErrOrderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return OrderResult{}, resp.StatusCode < 500, fmt.Errorf("%w: status %d: %s", ErrOrderFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out OrderResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return OrderResult{}, false, fmt.Errorf("%w: decode: %v", ErrOrderFailed, err)
	}
	if !out.OK() {
		reason := out.Error
		if reason == "" {
			reason = "no redirect url"
		}
		return out, true, fmt.Errorf("%w: %s", ErrOrderFailed, reason)
	}
	return out, true, nil
}
