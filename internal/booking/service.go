// Package booking implements the booking session: the hold timer, the
// multi-step booking wizard and the single-page direct booking flow.  Both
// flows share one checkout engine and one single-flight guard per session.
package booking

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kijani-trails/conservation-booking/internal/logger"
	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/monitoring"
	"github.com/kijani-trails/conservation-booking/internal/pricing"
	"github.com/kijani-trails/conservation-booking/internal/session"
	"github.com/kijani-trails/conservation-booking/internal/timer"
)

// sessionState is everything the service keeps in memory for one booking
// session.  The cart itself lives in the session store.
type sessionState struct {
	mu  sync.Mutex
	wiz wizard

	// processing is the single-flight guard shared by both flows.
	processing bool
	// paying is set while the payment order request is in flight; an
	// expiry arriving then is deferred until the order resolves.
	paying         bool
	expiryDeferred bool
	// handedOff marks a hold that ended in a payment redirect.
	handedOff bool
	// epoch changes on every expiry so a submission can tell that the
	// hold ran out underneath it.
	epoch         uint64
	expiredNotice bool
	lastSeen      time.Time
}

// Service runs booking sessions.
type Service struct {
	cfg Config
	Deps
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewService wires a booking service.  A nil Deps.Timers gets a real-time
// registry of cfg.HoldDuration.
func NewService(cfg Config, deps Deps) *Service {
	if cfg.HoldDuration <= 0 {
		cfg.HoldDuration = 15 * time.Minute
	}
	if cfg.Currency == "" {
		cfg.Currency = "KES"
	}
	if cfg.LookupMode != LookupDemo {
		cfg.LookupMode = LookupStrict
	}
	if deps.Timers == nil {
		deps.Timers = timer.NewRegistry(cfg.HoldDuration)
	}
	return &Service{cfg: cfg, Deps: deps, now: time.Now, sessions: make(map[string]*sessionState)}
}

func (s *Service) state(sessionID string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	st.lastSeen = s.now()
	return st
}

// startHoldLocked starts the session's hold unless it is already running.
// st.mu must be held.
func (s *Service) startHoldLocked(sessionID string, st *sessionState) *timer.Timer {
	t := s.Timers.Acquire(sessionID, func() { s.onExpire(sessionID) })
	if !t.IsActive() {
		t.Start()
		st.handedOff = false
		monitoring.HoldStarted()
	}
	return t
}

// holdExpired reports whether the session's hold ran out.  A session that
// never started a hold is not expired.
func (s *Service) holdExpired(sessionID string) bool {
	t := s.Timers.Get(sessionID)
	return t != nil && t.IsExpired()
}

// onExpire runs on the timer goroutine when a hold reaches zero.
func (s *Service) onExpire(sessionID string) {
	st := s.state(sessionID)
	st.mu.Lock()
	if st.handedOff {
		st.mu.Unlock()
		return
	}
	if st.paying {
		st.expiryDeferred = true
		st.mu.Unlock()
		logger.Log.Info("[booking] hold expired during payment request; deferring", "session", sessionID)
		return
	}
	expireLocked(st)
	st.mu.Unlock()
	s.clearSession(sessionID)
}

// expireLocked closes the wizard, forgets the form and raises the expired
// notice.  st.mu must be held.
func expireLocked(st *sessionState) {
	st.wiz = wizard{}
	st.expiredNotice = true
	st.epoch++
}

func (s *Service) clearSession(sessionID string) {
	monitoring.HoldExpired()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Store.ClearSession(ctx, sessionID); err != nil {
		logger.Log.Error("[booking] clear expired session failed", "session", sessionID, "err", err)
	}
}

// Sweep forgets sessions idle for longer than idle and releases their
// timers.  Sessions with a running hold or a submission in flight are kept.
func (s *Service) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	var stale []string
	s.mu.Lock()
	for id, st := range s.sessions {
		st.mu.Lock()
		busy := st.processing
		seen := st.lastSeen
		st.mu.Unlock()
		if busy || seen.After(cutoff) {
			continue
		}
		if t := s.Timers.Get(id); t != nil && t.IsActive() {
			continue
		}
		stale = append(stale, id)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	for _, id := range stale {
		s.Timers.Release(id)
	}
	return len(stale)
}

// Hold returns the display state of the session's hold, or nil when no hold
// was ever started.
func (s *Service) Hold(sessionID string) *timer.Snapshot {
	t := s.Timers.Get(sessionID)
	if t == nil {
		return nil
	}
	snap := t.Snapshot()
	return &snap
}

// priceSelection resolves a page selection into a priced cart selection
// using the experience's current prices.
func (s *Service) priceSelection(ctx context.Context, sel Selection) (model.CartSelection, *model.Experience, error) {
	if err := ValidateDate(sel.Date, s.now(), s.cfg.MaxAdvanceDays); err != nil {
		return model.CartSelection{}, nil, err
	}
	exp, err := s.Experiences.GetBySlug(ctx, sel.ExperienceSlug)
	if err != nil || exp == nil || !exp.IsActive {
		return model.CartSelection{}, nil, ErrExperienceUnavailable
	}
	if err := ValidateParty(sel.Adults, sel.Children, exp.Capacity); err != nil {
		return model.CartSelection{}, nil, err
	}
	opt := sel.OptionID
	if opt == "" {
		opt = model.OptionStandard
	}
	if !opt.Valid() {
		return model.CartSelection{}, nil, invalid("option_id", SectionAvailability, ErrWrongOption)
	}
	out := model.CartSelection{
		ExperienceSlug:     exp.Slug,
		ExperienceTitle:    exp.Title,
		Date:               strings.TrimSpace(sel.Date),
		Adults:             sel.Adults,
		Children:           sel.Children,
		OptionID:           opt,
		UnitPrice:          exp.UnitPrice(opt),
		ChildHalfPriceRule: exp.ChildHalfPriceRule,
		IsGroupPricing:     exp.IsGroupPricing,
		Currency:           s.currency(exp.Currency),
	}
	if _, err := pricing.ComputeSubtotal(out.UnitPrice, out.Adults, out.Children, out.ChildHalfPriceRule, out.IsGroupPricing); err != nil {
		return model.CartSelection{}, nil, invalid("party", SectionAvailability, err)
	}
	return out, exp, nil
}

// SetCart prices a selection and stores it as the session's single cart.
func (s *Service) SetCart(ctx context.Context, sessionID string, sel Selection) (model.CartSelection, error) {
	if sessionID == "" {
		return model.CartSelection{}, session.ErrNoSession
	}
	cart, _, err := s.priceSelection(ctx, sel)
	if err != nil {
		return model.CartSelection{}, err
	}
	return s.Store.SetCart(ctx, sessionID, cart)
}
