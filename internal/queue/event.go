// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedQueue is the durable queue carrying BookingCreatedEvent.
const BookingCreatedQueue = "booking.created"

// BookingCreatedEvent is published once a booking record has been inserted,
// before the traveler is sent to the payment page.  Amounts are in minor
// currency units.
type BookingCreatedEvent struct {
	BookingID      string  `json:"booking_id"`
	Flow           string  `json:"flow"`
	ExperienceID   string  `json:"experience_id"`
	ExperienceSlug string  `json:"experience_slug"`
	UserID         *uint64 `json:"user_id"`
	CustomerEmail  string  `json:"customer_email"`
	Date           string  `json:"date"`
	Adults         int     `json:"adults"`
	Children       int     `json:"children"`
	Subtotal       int64   `json:"subtotal"`
	Donation       int64   `json:"donation"`
	Total          int64   `json:"total"`
	PartnerAmount  int64   `json:"partner_amount"`
	PlatformAmount int64   `json:"platform_amount"`
	Currency       string  `json:"currency"`
	CreatedAt      string  `json:"created_at"`
}
