// Package payment is the client side of the external payment integration.
// The booking core asks for a payment order and redirects the traveler to
// the returned URL; the gateway later reports the outcome on the callback.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrOrderFailed wraps every payment order that did not produce a
	// redirect: transport errors, non-2xx responses, undecodable bodies,
	// success=false and empty redirect URLs.
	ErrOrderFailed = errors.New("payment order failed")
	// ErrBadSignature is returned for a callback whose signature does not
	// match its body.
	ErrBadSignature = errors.New("invalid callback signature")
)

// Customer identifies the payer to the gateway.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// OrderRequest asks the gateway for a payment page.  Amount is in minor
// currency units.
type OrderRequest struct {
	BookingID   string
	Amount      int64
	Currency    string
	Description string
	Reference   string
	CallbackURL string
	Customer    Customer
}

// OrderResult is the gateway's answer.
type OrderResult struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url"`
	OrderID     string `json:"order_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// OK is the only success signal: a successful order with somewhere to send
// the traveler.
func (r OrderResult) OK() bool {
	return r.Success && r.RedirectURL != ""
}

// Gateway creates payment orders.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}
