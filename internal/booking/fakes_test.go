package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kijani-trails/conservation-booking/internal/auth"
	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/payment"
	"github.com/kijani-trails/conservation-booking/internal/queue"
	"github.com/kijani-trails/conservation-booking/internal/repository"
	"github.com/kijani-trails/conservation-booking/internal/session"
	"github.com/kijani-trails/conservation-booking/internal/timer"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

const testDate = "2026-04-02"

type fakeExperiences struct {
	mu   sync.Mutex
	byID map[string]*model.Experience
	err  error
}

func (f *fakeExperiences) GetBySlug(_ context.Context, slug string) (*model.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.byID[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return nil, repository.ErrExperienceNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExperiences) remove(slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, slug)
}

// fakeBookings records inserts.  When block is set each Create signals
// entered and waits for block to close.
type fakeBookings struct {
	mu      sync.Mutex
	created []model.Booking
	err     error
	entered chan struct{}
	block   chan struct{}
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if block != nil {
		entered <- struct{}{}
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	b.ID = fmt.Sprintf("bk-%d", len(f.created)+1)
	b.CreatedAt = testNow
	f.created = append(f.created, *b)
	return nil
}

func (f *fakeBookings) blockNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = make(chan struct{}, 4)
	f.block = make(chan struct{})
}

func (f *fakeBookings) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.block)
	f.block = nil
}

func (f *fakeBookings) all() []model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Booking(nil), f.created...)
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []payment.OrderRequest
	result   payment.OrderResult
	err      error
	entered  chan struct{}
	block    chan struct{}
}

func (f *fakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (payment.OrderResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block, entered := f.block, f.entered
	f.mu.Unlock()
	if block != nil {
		entered <- struct{}{}
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

func (f *fakeGateway) set(res payment.OrderResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = res, err
}

func (f *fakeGateway) blockNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = make(chan struct{}, 4)
	f.block = make(chan struct{})
}

func (f *fakeGateway) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.block)
	f.block = nil
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) CurrentUser(ctx context.Context, userID uint64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAuth) CurrentProfile(ctx context.Context, userID uint64) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*model.Profile)
	return p, args.Error(1)
}

func (m *mockAuth) SignUp(ctx context.Context, email, password string, meta auth.SignUpMetadata) (*model.User, error) {
	args := m.Called(ctx, email, password, meta)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type harness struct {
	svc         *Service
	store       *session.MemoryStore
	timers      *timer.Registry
	experiences *fakeExperiences
	bookings    *fakeBookings
	gateway     *fakeGateway
	auth        *mockAuth
	events      *mockEvents
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	cfg := Config{
		HoldDuration:   15 * time.Minute,
		Currency:       "KES",
		CallbackURL:    "https://booking.test/v1/payments/callback",
		MaxAdvanceDays: 365,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	h := &harness{
		store:  session.NewMemoryStore(24 * time.Hour),
		timers: timer.NewRegistry(cfg.HoldDuration, timer.WithManualTicks()),
		experiences: &fakeExperiences{byID: map[string]*model.Experience{
			"rhino-walk": {ID: "exp-1", Slug: "rhino-walk", Title: "Rhino tracking walk", PriceAdult: 3500,
				Currency: "KES", Capacity: 10, IsActive: true},
			"family-canoe": {ID: "exp-2", Slug: "family-canoe", Title: "Family canoe", PriceAdult: 1000,
				PremiumPriceAdult: 1500, ChildHalfPriceRule: true, Currency: "KES", Capacity: 6, IsActive: true},
			"boat-charter": {ID: "exp-3", Slug: "boat-charter", Title: "Boat charter", PriceAdult: 5000,
				IsGroupPricing: true, Currency: "KES", Capacity: 8, IsActive: true},
		}},
		bookings: &fakeBookings{},
		gateway:  &fakeGateway{result: payment.OrderResult{Success: true, RedirectURL: "https://pay.test/o/1"}},
		auth:     new(mockAuth),
		events:   new(mockEvents),
	}
	h.events.On("PublishBookingCreated", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.svc = NewService(cfg, Deps{
		Store:       h.store,
		Timers:      h.timers,
		Auth:        h.auth,
		Experiences: h.experiences,
		Bookings:    h.bookings,
		Payments:    h.gateway,
		Events:      h.events,
	})
	h.svc.now = func() time.Time { return testNow }
	return h
}

func rhinoSelection() Selection {
	return Selection{ExperienceSlug: "rhino-walk", Date: testDate, Adults: 2}
}

func str(s string) *string { return &s }
func yes() *bool           { b := true; return &b }

// toConfirm opens the wizard on a rhino-walk cart and walks it to CONFIRM.
func (h *harness) toConfirm(t *testing.T, sid string, v Viewer, donation int64) {
	t.Helper()
	ctx := context.Background()
	_, err := h.svc.SetCart(ctx, sid, rhinoSelection())
	require.NoError(t, err)
	_, err = h.svc.Open(ctx, sid, v)
	require.NoError(t, err)
	require.NoError(t, h.svc.UpdateForm(sid, FormPatch{
		Name: str("Wanjiru Kamau"), Email: str("wanjiru@example.com"), Phone: str("+254700000001"),
		Donation: &donation, AgreeTerms: yes(),
	}))
	require.NoError(t, h.svc.Next(sid))
}

func (h *harness) expireHold(t *testing.T, sid string) {
	t.Helper()
	tm := h.timers.Get(sid)
	require.NotNil(t, tm)
	for tm.Tick() {
	}
}
