package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

// Callback is the gateway's asynchronous report on a payment order.
type Callback struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	OrderID   string `json:"order_id"`
}

// Sign returns the hex HMAC-SHA256 of body under key.
func Sign(body, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks the X-Signature header value of a callback.
func VerifySignature(body []byte, signature, key string) error {
	want := Sign(body, []byte(key))
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return ErrBadSignature
	}
	return nil
}

// Outcome maps a gateway status onto the booking's payment and booking
// status.  ok is false for statuses that do not settle the booking.
func (c Callback) Outcome() (paymentStatus, bookingStatus string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(c.Status)) {
	case "completed", "paid", "success", "successful":
		return model.PaymentStatusCompleted, model.BookingStatusConfirmed, true
	case "failed", "cancelled", "canceled", "declined", "expired":
		return model.PaymentStatusFailed, model.BookingStatusCancelled, true
	}
	return "", "", false
}
