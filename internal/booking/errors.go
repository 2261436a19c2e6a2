package booking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParty          = errors.New("at least one adult is required")
	ErrInvalidDate           = errors.New("invalid booking date")
	ErrInvalidDonation       = errors.New("invalid donation amount")
	ErrMissingContact        = errors.New("name, email and phone are required")
	ErrTermsNotAccepted      = errors.New("terms must be accepted")
	ErrHoldExpired           = errors.New("booking hold expired")
	ErrSubmissionInFlight    = errors.New("booking already being submitted")
	ErrNoCart                = errors.New("no experience selected")
	ErrAlreadyInCart         = errors.New("selection already in cart")
	ErrItemNotFound          = errors.New("cart item not found")
	ErrWrongStep             = errors.New("not allowed at this step")
	ErrWizardClosed          = errors.New("booking wizard is not open")
	ErrExperienceUnavailable = errors.New("experience not available")
	ErrWrongOption           = errors.New("unknown option")
	ErrBookingFailed         = errors.New("could not create booking")
	ErrPaymentFailed         = errors.New("could not start payment")
)

// UI sections a validation error sends the traveler back to.
const (
	SectionAvailability = "availability"
	SectionContact      = "contact"
	SectionConfirm      = "confirm"
)

// ValidationError is a recoverable input problem.  Section names the part
// of the page the traveler has to fix.
type ValidationError struct {
	Field   string
	Section string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, section string, err error) *ValidationError {
	return &ValidationError{Field: field, Section: section, Err: err}
}

// AlreadyInCartError carries the id of the multi-cart item that matches a
// direct booking attempt, so the caller can offer checkout or removal.
type AlreadyInCartError struct {
	ItemID string
}

func (e *AlreadyInCartError) Error() string {
	return fmt.Sprintf("%v (item %s)", ErrAlreadyInCart, e.ItemID)
}

func (e *AlreadyInCartError) Is(target error) bool { return target == ErrAlreadyInCart }

// UserMessage turns a checkout error into the text shown to the traveler.
// Network failures keep their detail behind a "try again" framing.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Err.Error()
	case errors.Is(err, ErrHoldExpired):
		return "Your booking hold has expired. Please start again from the experience page."
	case errors.Is(err, ErrPaymentFailed), errors.Is(err, ErrBookingFailed):
		return fmt.Sprintf("Something went wrong, please try again. (%v)", err)
	}
	return err.Error()
}
