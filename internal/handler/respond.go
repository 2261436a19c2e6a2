package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kijani-trails/conservation-booking/internal/booking"
	"github.com/kijani-trails/conservation-booking/internal/logger"
	"github.com/kijani-trails/conservation-booking/internal/payment"
	"github.com/kijani-trails/conservation-booking/internal/pricing"
	"github.com/kijani-trails/conservation-booking/internal/repository"
	"github.com/kijani-trails/conservation-booking/internal/session"
)

// statusOf maps domain errors onto HTTP statuses.
func statusOf(err error) int {
	var ve *booking.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, booking.ErrNoCart),
		errors.Is(err, booking.ErrInvalidParty),
		errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrWrongOption),
		errors.Is(err, pricing.ErrInvalidParty),
		errors.Is(err, pricing.ErrInvalidPrice),
		errors.Is(err, pricing.ErrNegativeAmount),
		errors.Is(err, pricing.ErrAmountTooLarge),
		errors.Is(err, session.ErrNoSession):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrBadSignature):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrExperienceUnavailable),
		errors.Is(err, booking.ErrItemNotFound),
		errors.Is(err, repository.ErrExperienceNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrPartnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSubmissionInFlight),
		errors.Is(err, booking.ErrAlreadyInCart),
		errors.Is(err, booking.ErrWrongStep),
		errors.Is(err, booking.ErrWizardClosed),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, booking.ErrHoldExpired):
		return http.StatusGone
	case errors.Is(err, booking.ErrPaymentFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}.  Validation errors also carry the
// field and the section of the page to return to; a selection already in
// the cart carries the item id.
func fail(c echo.Context, err error) error {
	code := statusOf(err)
	body := echo.Map{"error": booking.UserMessage(err)}
	var ve *booking.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
		body["section"] = ve.Section
	}
	var dup *booking.AlreadyInCartError
	if errors.As(err, &dup) {
		body["item_id"] = dup.ItemID
	}
	if code == http.StatusInternalServerError {
		logger.Log.Error("[http] request failed", "path", c.Path(), "err", err)
		if !errors.Is(err, booking.ErrBookingFailed) {
			body["error"] = "internal error"
		}
	}
	return c.JSON(code, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
