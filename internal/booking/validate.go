package booking

import (
	"errors"
	"strings"
	"time"

	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/pricing"
)

// ValidateDonation accepts zero up to pricing.MaxAmount.
func ValidateDonation(donation int64) error {
	if donation < 0 || donation > pricing.MaxAmount {
		return invalid("donation", SectionConfirm, ErrInvalidDonation)
	}
	return nil
}

// ValidateDate checks a booking date: present, a calendar date, not in the
// past and no further ahead than maxAdvanceDays (0 disables the limit).
// Days are compared in now's location.
func ValidateDate(date string, now time.Time, maxAdvanceDays int) error {
	date = strings.TrimSpace(date)
	if date == "" {
		return invalid("date", SectionAvailability, errors.New("please choose a date"))
	}
	d, err := time.ParseInLocation(model.DateLayout, date, now.Location())
	if err != nil {
		return invalid("date", SectionAvailability, ErrInvalidDate)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return invalid("date", SectionAvailability, errors.New("date is in the past"))
	}
	if maxAdvanceDays > 0 && d.After(today.AddDate(0, 0, maxAdvanceDays)) {
		return invalid("date", SectionAvailability, errors.New("date is too far ahead"))
	}
	return nil
}

// ValidateParty checks party size and, when capacity > 0, the experience's
// capacity.
func ValidateParty(adults, children, capacity int) error {
	if adults < 1 || children < 0 {
		return invalid("party", SectionAvailability, ErrInvalidParty)
	}
	if capacity > 0 && adults+children > capacity {
		return invalid("party", SectionAvailability, errors.New("party exceeds the experience capacity"))
	}
	return nil
}

// ValidateContact checks the fields gating the contact step and reports the
// first one missing.
func ValidateContact(f model.BookingFormData) error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return invalid("name", SectionContact, ErrMissingContact)
	case strings.TrimSpace(f.Email) == "":
		return invalid("email", SectionContact, ErrMissingContact)
	case strings.TrimSpace(f.Phone) == "":
		return invalid("phone", SectionContact, ErrMissingContact)
	}
	return nil
}
