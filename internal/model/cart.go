package model

import "time"

// OptionID enumerates the experience options a traveler can pick.
type OptionID string

const (
	OptionStandard OptionID = "standard"
	OptionPremium  OptionID = "premium"
)

// Valid reports whether o is a known option.
func (o OptionID) Valid() bool {
	return o == OptionStandard || o == OptionPremium
}

// DateLayout is the calendar date format used for booking dates.  Dates carry
// no time component.
const DateLayout = "2006-01-02"

// Split is the allocation of a booking's money between the partner and the
// platform.  Partner includes 100% of any donation.
type Split struct {
	Partner  int64 `json:"partner90"`
	Platform int64 `json:"platform10"`
}

// CartSelection is the single-experience working cart of a booking session.
// Subtotal and Split are derived when the cart is written and are never
// recomputed on read.
type CartSelection struct {
	ExperienceSlug     string    `json:"experience_slug"`
	ExperienceTitle    string    `json:"experience_title,omitempty"`
	Date               string    `json:"date"`
	Adults             int       `json:"adults"`
	Children           int       `json:"children"`
	OptionID           OptionID  `json:"option_id"`
	UnitPrice          int64     `json:"unit_price"`
	ChildHalfPriceRule bool      `json:"child_half_price_rule"`
	IsGroupPricing     bool      `json:"is_group_pricing"`
	Subtotal           int64     `json:"subtotal"`
	Currency           string    `json:"currency"`
	Split              Split     `json:"split"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// MultiCartItem is one queued hold in the alternate multi-item cart.  Items
// are unique by ID only; two items with the same selection may coexist.
type MultiCartItem struct {
	ID                 string    `json:"id"`
	ExperienceSlug     string    `json:"experience_slug"`
	ExperienceTitle    string    `json:"experience_title,omitempty"`
	Date               string    `json:"date"`
	Adults             int       `json:"adults"`
	Children           int       `json:"children"`
	OptionID           OptionID  `json:"option_id"`
	UnitPrice          int64     `json:"unit_price"`
	ChildHalfPriceRule bool      `json:"child_half_price_rule"`
	IsGroupPricing     bool      `json:"is_group_pricing"`
	Subtotal           int64     `json:"subtotal"`
	Currency           string    `json:"currency"`
	AddedAt            time.Time `json:"added_at"`
}

// SameSelection compares the value identity used to detect duplicate holds.
func (it MultiCartItem) SameSelection(slug, date string, adults, children int) bool {
	return it.ExperienceSlug == slug && it.Date == date && it.Adults == adults && it.Children == children
}
