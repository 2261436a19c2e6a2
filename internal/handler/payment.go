package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kijani-trails/conservation-booking/internal/logger"
	"github.com/kijani-trails/conservation-booking/internal/monitoring"
	"github.com/kijani-trails/conservation-booking/internal/payment"
)

// PaymentStatusWriter records gateway outcomes on bookings.
type PaymentStatusWriter interface {
	UpdatePaymentStatus(ctx context.Context, id, paymentStatus, status string, ref *string) error
}

type PaymentHandler struct {
	Bookings PaymentStatusWriter
	// Secret verifies the X-Signature header.  Empty disables the check,
	// which is only acceptable in development.
	Secret string
}

func NewPaymentHandler(b PaymentStatusWriter, secret string) *PaymentHandler {
	return &PaymentHandler{Bookings: b, Secret: secret}
}

const maxCallbackBody = 64 << 10

// Callback applies the gateway's asynchronous report: POST /v1/payments/callback
func (h *PaymentHandler) Callback(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBody))
	if err != nil {
		return badRequest(c, "invalid body")
	}
	if h.Secret != "" {
		if err := payment.VerifySignature(body, c.Request().Header.Get("X-Signature"), h.Secret); err != nil {
			logger.Log.Warn("[payment] callback rejected", "ip", c.RealIP(), "err", err)
			return fail(c, err)
		}
	}

	var cb payment.Callback
	if err := json.Unmarshal(body, &cb); err != nil || strings.TrimSpace(cb.BookingID) == "" {
		return badRequest(c, "booking_id required")
	}
	paymentStatus, bookingStatus, ok := cb.Outcome()
	monitoring.PaymentCallback(paymentStatus)
	if !ok {
		// pending or unknown statuses leave the booking as it is
		return c.JSON(http.StatusAccepted, echo.Map{"status": "ignored"})
	}

	var ref *string
	if r := strings.TrimSpace(cb.Reference); r != "" {
		ref = &r
	}
	if err := h.Bookings.UpdatePaymentStatus(c.Request().Context(), cb.BookingID, paymentStatus, bookingStatus, ref); err != nil {
		return fail(c, err)
	}
	logger.Log.Info("[payment] booking settled", "booking_id", cb.BookingID, "payment_status", paymentStatus)
	return c.JSON(http.StatusOK, echo.Map{"status": paymentStatus})
}
