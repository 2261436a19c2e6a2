package model

import "time"

// Experience is the canonical bookable activity offered by a conservation
// partner.  Every data source (database rows, seeded catalogues, demo data)
// is adapted into this shape before it reaches the booking core.
//
// Fields:
//  ID                 – experiences.id (UUID string).
//  PartnerID          – partner hosting the experience.
//  Slug               – URL identifier, unique.
//  Title              – display title.
//  PriceAdult         – adult unit price in minor currency units.
//  PremiumPriceAdult  – adult unit price for the premium option (0 when the option is not offered).
//  Currency           – ISO currency code (KES).
//  ChildHalfPriceRule – children pay half the unit price when true.
//  IsGroupPricing     – the unit price is a flat price for the whole party.
//  Capacity           – maximum party size per booking.
//  IsActive           – inactive experiences cannot be booked.
type Experience struct {
	ID                 string
	PartnerID          string
	Slug               string
	Title              string
	PriceAdult         int64
	PremiumPriceAdult  int64
	Currency           string
	ChildHalfPriceRule bool
	IsGroupPricing     bool
	Capacity           int
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UnitPrice returns the adult unit price for the given option.  The premium
// option falls back to the standard price when no premium price is set.
func (e Experience) UnitPrice(opt OptionID) int64 {
	if opt == OptionPremium && e.PremiumPriceAdult > 0 {
		return e.PremiumPriceAdult
	}
	return e.PriceAdult
}
