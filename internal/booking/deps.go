package booking

import (
	"context"
	"time"

	"github.com/kijani-trails/conservation-booking/internal/auth"
	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/payment"
	"github.com/kijani-trails/conservation-booking/internal/queue"
	"github.com/kijani-trails/conservation-booking/internal/session"
	"github.com/kijani-trails/conservation-booking/internal/timer"
)

// Booking flows, used as metric and event labels.
const (
	FlowWizard = "wizard"
	FlowDirect = "direct"
)

// Experience lookup modes.  Demo mode books unknown experiences against a
// placeholder id and must not be used in production.
const (
	LookupStrict = "strict"
	LookupDemo   = "demo"
)

// ExperienceFinder resolves an experience by slug.
type ExperienceFinder interface {
	GetBySlug(ctx context.Context, slug string) (*model.Experience, error)
}

// BookingWriter inserts booking records.  Create fills b.ID.
type BookingWriter interface {
	Create(ctx context.Context, b *model.Booking) error
}

// EventPublisher announces inserted bookings.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// Config holds the booking policy.
type Config struct {
	HoldDuration            time.Duration
	Currency                string
	LookupMode              string
	PlaceholderExperienceID string
	CallbackURL             string
	MaxAdvanceDays          int
}

// Deps are the collaborators of the booking service.  Events may be nil.
type Deps struct {
	Store       session.Store
	Timers      *timer.Registry
	Auth        auth.Provider
	Experiences ExperienceFinder
	Bookings    BookingWriter
	Payments    payment.Gateway
	Events      EventPublisher
}

// Viewer is the caller of a booking operation.  UserID 0 is a guest.
type Viewer struct {
	UserID uint64
}

// Selection is what a traveler picks on an experience page.
type Selection struct {
	ExperienceSlug string         `json:"experience_slug"`
	Date           string         `json:"date"`
	Adults         int            `json:"adults"`
	Children       int            `json:"children"`
	OptionID       model.OptionID `json:"option_id"`
}

// ConfirmResult is a successful payment handoff.
type ConfirmResult struct {
	BookingID   string        `json:"booking_id"`
	RedirectURL string        `json:"redirect_url"`
	Receipt     model.Receipt `json:"receipt"`
}
