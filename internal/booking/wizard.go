package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kijani-trails/conservation-booking/internal/logger"
	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/pricing"
	"github.com/kijani-trails/conservation-booking/internal/session"
	"github.com/kijani-trails/conservation-booking/internal/timer"
)

// Step is a booking wizard step.
type Step int

const (
	StepDetails Step = iota + 1
	StepContact
	StepConfirm
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepContact:
		return "contact"
	case StepConfirm:
		return "confirm"
	case StepSuccess:
		return "success"
	}
	return "closed"
}

// Form fields tracked for the auto-fill merge.
const (
	fieldName  = "name"
	fieldEmail = "email"
	fieldPhone = "phone"
)

type wizard struct {
	open        bool
	step        Step
	form        model.BookingFormData
	edited      map[string]bool
	lastError   string
	bookingID   string
	redirectURL string
}

// FormPatch is a partial form update; nil fields are left alone.
type FormPatch struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	SpecialRequests *string `json:"special_requests"`
	Donation        *int64  `json:"donation"`
	AgreeTerms      *bool   `json:"agree_terms"`
	MarketingOptIn  *bool   `json:"marketing_opt_in"`
	CreateAccount   *bool   `json:"create_account"`
}

// WizardState is the wizard as the booking modal renders it.
type WizardState struct {
	Open        bool                  `json:"open"`
	Step        Step                  `json:"step"`
	StepName    string                `json:"step_name"`
	Form        model.BookingFormData `json:"form"`
	Cart        *model.CartSelection  `json:"cart,omitempty"`
	Quote       *pricing.Quote        `json:"quote,omitempty"`
	Hold        *timer.Snapshot       `json:"hold,omitempty"`
	Processing  bool                  `json:"processing"`
	LastError   string                `json:"last_error,omitempty"`
	Expired     bool                  `json:"expired"`
	BookingID   string                `json:"booking_id,omitempty"`
	RedirectURL string                `json:"redirect_url,omitempty"`
}

// Open opens the wizard on the contact step and starts the hold.  Reopening
// keeps the step and the form.  Contact fields the traveler has not edited
// are filled from the viewer's profile.
func (s *Service) Open(ctx context.Context, sessionID string, v Viewer) (WizardState, error) {
	if sessionID == "" {
		return WizardState{}, session.ErrNoSession
	}
	cart, err := s.Store.GetCart(ctx, sessionID)
	if err != nil {
		return WizardState{}, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil {
		return WizardState{}, ErrNoCart
	}

	st := s.state(sessionID)
	st.mu.Lock()
	if !st.wiz.open || st.wiz.step == StepSuccess {
		form := st.wiz.form
		edited := st.wiz.edited
		if st.wiz.step == StepSuccess {
			form, edited = model.BookingFormData{}, nil
		}
		st.wiz = wizard{open: true, step: StepContact, form: form, edited: edited}
	}
	st.expiredNotice = false
	st.wiz.lastError = ""
	s.startHoldLocked(sessionID, st)
	st.mu.Unlock()

	s.autofill(ctx, sessionID, st, v)
	return s.State(ctx, sessionID)
}

// autofill merges the viewer's profile into empty, unedited contact fields.
// Auth failures only cost the convenience.
func (s *Service) autofill(ctx context.Context, sessionID string, st *sessionState, v Viewer) {
	if v.UserID == 0 || s.Auth == nil {
		return
	}
	var name, email, phone string
	prof, err := s.Auth.CurrentProfile(ctx, v.UserID)
	if err != nil {
		logger.Log.Warn("[wizard] load profile failed", "session", sessionID, "err", err)
	}
	if prof != nil {
		name, email, phone = prof.FullName(), prof.Email, prof.Phone
	}
	if email == "" {
		if u, err := s.Auth.CurrentUser(ctx, v.UserID); err == nil && u != nil {
			email = u.Email
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.wiz.open {
		return
	}
	fill := func(field string, dst *string, val string) {
		if val != "" && *dst == "" && !st.wiz.edited[field] {
			*dst = val
		}
	}
	fill(fieldName, &st.wiz.form.Name, name)
	fill(fieldEmail, &st.wiz.form.Email, email)
	fill(fieldPhone, &st.wiz.form.Phone, phone)
}

// UpdateForm applies a patch to the open wizard's form.
func (s *Service) UpdateForm(sessionID string, p FormPatch) error {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.wiz.open || st.wiz.step == StepSuccess {
		return ErrWizardClosed
	}
	if st.processing {
		return ErrSubmissionInFlight
	}
	if p.Donation != nil {
		if err := ValidateDonation(*p.Donation); err != nil {
			return err
		}
	}
	if st.wiz.edited == nil {
		st.wiz.edited = make(map[string]bool)
	}
	f := &st.wiz.form
	set := func(field string, dst *string, val *string) {
		if val != nil {
			*dst = strings.TrimSpace(*val)
			st.wiz.edited[field] = true
		}
	}
	set(fieldName, &f.Name, p.Name)
	set(fieldEmail, &f.Email, p.Email)
	set(fieldPhone, &f.Phone, p.Phone)
	if p.SpecialRequests != nil {
		f.SpecialRequests = *p.SpecialRequests
	}
	if p.Donation != nil {
		f.Donation = *p.Donation
	}
	if p.AgreeTerms != nil {
		f.AgreeTerms = *p.AgreeTerms
	}
	if p.MarketingOptIn != nil {
		f.MarketingOptIn = *p.MarketingOptIn
	}
	if p.CreateAccount != nil {
		f.CreateAccount = *p.CreateAccount
	}
	return nil
}

// Next moves CONTACT to CONFIRM once name, email and phone are present.
func (s *Service) Next(sessionID string) error {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.wiz.open {
		return ErrWizardClosed
	}
	if st.wiz.step != StepContact {
		return ErrWrongStep
	}
	if err := ValidateContact(st.wiz.form); err != nil {
		st.wiz.lastError = UserMessage(err)
		return err
	}
	st.wiz.step = StepConfirm
	st.wiz.lastError = ""
	return nil
}

// Back returns from CONFIRM to CONTACT.
func (s *Service) Back(sessionID string) error {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.wiz.open {
		return ErrWizardClosed
	}
	if st.wiz.step != StepConfirm {
		return ErrWrongStep
	}
	if st.processing {
		return ErrSubmissionInFlight
	}
	st.wiz.step = StepContact
	return nil
}

// Cancel closes the wizard and stops the hold.  The cart and the form stay
// so the traveler can come back to them.
func (s *Service) Cancel(sessionID string) error {
	st := s.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.processing {
		return ErrSubmissionInFlight
	}
	if t := s.Timers.Get(sessionID); t != nil {
		t.Stop()
	}
	st.wiz.open = false
	st.wiz.lastError = ""
	return nil
}

// Confirm submits the booking: it inserts the booking record, asks the
// gateway for a payment order and returns the redirect.  On failure the
// wizard stays on CONFIRM with the hold and cart intact.
func (s *Service) Confirm(ctx context.Context, sessionID string, v Viewer) (ConfirmResult, error) {
	st := s.state(sessionID)
	st.mu.Lock()
	switch {
	case !st.wiz.open:
		st.mu.Unlock()
		return ConfirmResult{}, ErrWizardClosed
	case st.wiz.step != StepConfirm:
		st.mu.Unlock()
		return ConfirmResult{}, ErrWrongStep
	case st.processing:
		st.mu.Unlock()
		return ConfirmResult{}, ErrSubmissionInFlight
	case s.holdExpired(sessionID):
		st.mu.Unlock()
		return ConfirmResult{}, ErrHoldExpired
	case !st.wiz.form.AgreeTerms:
		err := invalid("agree_terms", SectionConfirm, ErrTermsNotAccepted)
		st.wiz.lastError = UserMessage(err)
		st.mu.Unlock()
		return ConfirmResult{}, err
	}
	st.processing = true
	st.wiz.lastError = ""
	form, epoch := st.wiz.form, st.epoch
	st.mu.Unlock()

	cart, err := s.Store.GetCart(ctx, sessionID)
	if err == nil && cart == nil {
		err = ErrNoCart
	}
	var res checkoutResult
	if err == nil {
		res, err = s.checkout(ctx, checkoutInput{
			flow:        FlowWizard,
			viewer:      v,
			cart:        *cart,
			form:        form,
			beforeOrder: func() error { return s.enterPayment(st, epoch) },
		})
	}
	return s.finishSubmission(ctx, sessionID, st, res, err, true)
}

// enterPayment marks the payment order as in flight unless the hold expired
// since the submission started.
func (s *Service) enterPayment(st *sessionState, epoch uint64) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.epoch != epoch {
		return ErrHoldExpired
	}
	st.paying = true
	return nil
}

// finishSubmission releases the single-flight guard and settles the hold.
// A successful order wins over an expiry that arrived while it was in
// flight; a failed one applies that expiry.
func (s *Service) finishSubmission(ctx context.Context, sessionID string, st *sessionState, res checkoutResult, err error, fromWizard bool) (ConfirmResult, error) {
	st.mu.Lock()
	deferred := st.expiryDeferred
	st.processing, st.paying, st.expiryDeferred = false, false, false

	if err != nil {
		if deferred {
			expireLocked(st)
			st.mu.Unlock()
			s.clearSession(sessionID)
			return ConfirmResult{}, fmt.Errorf("%w: %w", ErrHoldExpired, err)
		}
		if fromWizard && st.wiz.open {
			st.wiz.lastError = UserMessage(err)
		}
		st.mu.Unlock()
		return ConfirmResult{}, err
	}

	// Stop the hold before anything else so no expiry follows the handoff.
	if t := s.Timers.Get(sessionID); t != nil {
		t.Stop()
	}
	st.handedOff = true
	if fromWizard {
		st.wiz.step = StepSuccess
		st.wiz.bookingID = res.booking.ID
		st.wiz.redirectURL = res.order.RedirectURL
	}
	st.mu.Unlock()

	if err := s.Store.SaveReceipt(ctx, sessionID, res.receipt); err != nil {
		logger.Log.Error("[booking] save receipt failed", "session", sessionID, "booking_id", res.booking.ID, "err", err)
	}
	if fromWizard {
		if err := s.Store.ClearCart(ctx, sessionID); err != nil {
			logger.Log.Error("[booking] clear cart failed", "session", sessionID, "err", err)
		}
	}
	return ConfirmResult{BookingID: res.booking.ID, RedirectURL: res.order.RedirectURL, Receipt: res.receipt}, nil
}

// State returns the wizard snapshot, including the hold countdown and the
// live quote for the current cart and donation.
func (s *Service) State(ctx context.Context, sessionID string) (WizardState, error) {
	st := s.state(sessionID)
	st.mu.Lock()
	out := WizardState{
		Open:        st.wiz.open,
		Step:        st.wiz.step,
		StepName:    st.wiz.step.String(),
		Form:        st.wiz.form,
		Processing:  st.processing,
		LastError:   st.wiz.lastError,
		Expired:     st.expiredNotice,
		BookingID:   st.wiz.bookingID,
		RedirectURL: st.wiz.redirectURL,
	}
	st.mu.Unlock()
	out.Hold = s.Hold(sessionID)

	cart, err := s.Store.GetCart(ctx, sessionID)
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return out, fmt.Errorf("load cart: %w", err)
	}
	if cart != nil {
		out.Cart = cart
		q, err := pricing.NewQuote(pricing.Input{
			UnitPrice:      cart.UnitPrice,
			Adults:         cart.Adults,
			Children:       cart.Children,
			ChildHalfPrice: cart.ChildHalfPriceRule,
			IsGroupPricing: cart.IsGroupPricing,
			Donation:       out.Form.Donation,
			Currency:       s.currency(cart.Currency),
		})
		if err == nil {
			out.Quote = &q
		}
	}
	return out, nil
}
