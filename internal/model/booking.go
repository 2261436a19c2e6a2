package model

import "time"

// Booking and payment status values written by the booking core.  Later
// transitions belong to the payment callback.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// BookingFormData holds the contact and confirmation fields collected by the
// booking wizard and the unified flow.
type BookingFormData struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests,omitempty"`
	Donation        int64  `json:"donation"`
	AgreeTerms      bool   `json:"agree_terms"`
	MarketingOptIn  bool   `json:"marketing_opt_in"`
	CreateAccount   bool   `json:"create_account"`
}

// HasContact reports whether the fields required to leave the contact step
// are present.
func (f BookingFormData) HasContact() bool {
	return f.Name != "" && f.Email != "" && f.Phone != ""
}

// Booking mirrors a row in the bookings table.  UserID is nil for guest
// bookings.
//
// Fields:
//  ID             – bookings.id (UUID string).
//  ExperienceID   – experience being booked.
//  UserID         – booking owner; nil for guests.
//  CustomerName   – contact name.
//  CustomerEmail  – contact email.
//  CustomerPhone  – contact phone.
//  BookingDate    – calendar date of the experience.
//  Adults         – number of adults (>= 1).
//  Children       – number of children (>= 0).
//  OptionID       – chosen option.
//  UnitPrice      – adult unit price used for pricing.
//  Subtotal       – party price before donation.
//  DonationAmount – donation, 100% to the partner.
//  Total          – subtotal + donation.
//  PartnerAmount  – partner share including the donation.
//  PlatformAmount – platform share.
//  Currency       – ISO currency code.
//  Status         – pending | confirmed | cancelled.
//  PaymentStatus  – pending | completed | failed.
//  PaymentRef     – payment gateway reference (nullable).
//  SpecialRequests – free text (nullable).
type Booking struct {
	ID              string
	ExperienceID    string
	UserID          *uint64
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	BookingDate     string
	Adults          int
	Children        int
	OptionID        OptionID
	UnitPrice       int64
	Subtotal        int64
	DonationAmount  int64
	Total           int64
	PartnerAmount   int64
	PlatformAmount  int64
	Currency        string
	Status          string
	PaymentStatus   string
	PaymentRef      *string
	SpecialRequests *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Receipt is the impact summary persisted for the post-payment confirmation
// screen.  It is cleared once read.
type Receipt struct {
	BookingID       string    `json:"booking_id"`
	ExperienceSlug  string    `json:"experience_slug"`
	ExperienceTitle string    `json:"experience_title,omitempty"`
	Date            string    `json:"date"`
	Adults          int       `json:"adults"`
	Children        int       `json:"children"`
	OptionID        OptionID  `json:"option_id"`
	Subtotal        int64     `json:"subtotal"`
	Donation        int64     `json:"donation"`
	Total           int64     `json:"total"`
	PartnerAmount   int64     `json:"partner_amount"`
	PlatformAmount  int64     `json:"platform_amount"`
	Currency        string    `json:"currency"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CreatedAt       time.Time `json:"created_at"`
}
