package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kijani-trails/conservation-booking/internal/auth"
	"github.com/kijani-trails/conservation-booking/internal/logger"
	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/monitoring"
	"github.com/kijani-trails/conservation-booking/internal/payment"
	"github.com/kijani-trails/conservation-booking/internal/pricing"
	"github.com/kijani-trails/conservation-booking/internal/queue"
	"github.com/kijani-trails/conservation-booking/internal/repository"
	"github.com/kijani-trails/conservation-booking/internal/utils"
)

type checkoutInput struct {
	flow   string
	viewer Viewer
	cart   model.CartSelection
	form   model.BookingFormData
	// beforeOrder runs right before the payment order is requested.  An
	// error aborts the checkout with the booking record left pending.
	beforeOrder func() error
}

type checkoutResult struct {
	booking *model.Booking
	order   payment.OrderResult
	receipt model.Receipt
}

// checkout runs the steps shared by both flows, strictly in sequence:
// validate, optional account creation, experience resolution, booking
// insert, event publish and payment order.  It succeeds only when the
// gateway returned a redirect.
func (s *Service) checkout(ctx context.Context, in checkoutInput) (checkoutResult, error) {
	started := time.Now()
	res, err := s.runCheckout(ctx, in)
	outcome := "ok"
	if err != nil {
		outcome = "failed"
		logger.Log.Warn("["+in.flow+"] checkout failed", "slug", in.cart.ExperienceSlug, "err", err)
	}
	monitoring.ObserveConfirm(in.flow, outcome, started)
	return res, err
}

func (s *Service) runCheckout(ctx context.Context, in checkoutInput) (checkoutResult, error) {
	cart, form := in.cart, in.form

	if err := ValidateDate(cart.Date, s.now(), s.cfg.MaxAdvanceDays); err != nil {
		return checkoutResult{}, err
	}
	if err := ValidateParty(cart.Adults, cart.Children, 0); err != nil {
		return checkoutResult{}, err
	}
	if err := ValidateContact(form); err != nil {
		return checkoutResult{}, err
	}
	if err := ValidateDonation(form.Donation); err != nil {
		return checkoutResult{}, err
	}
	quote, err := pricing.NewQuote(pricing.Input{
		UnitPrice:      cart.UnitPrice,
		Adults:         cart.Adults,
		Children:       cart.Children,
		ChildHalfPrice: cart.ChildHalfPriceRule,
		IsGroupPricing: cart.IsGroupPricing,
		Donation:       form.Donation,
		Currency:       s.currency(cart.Currency),
	})
	if err != nil {
		return checkoutResult{}, invalid("party", SectionAvailability, err)
	}

	userID := s.resolveUser(ctx, in.viewer, form)

	experienceID, err := s.resolveExperience(ctx, cart.ExperienceSlug)
	if err != nil {
		return checkoutResult{}, err
	}

	b := &model.Booking{
		ExperienceID:   experienceID,
		UserID:         userID,
		CustomerName:   strings.TrimSpace(form.Name),
		CustomerEmail:  strings.ToLower(strings.TrimSpace(form.Email)),
		CustomerPhone:  strings.TrimSpace(form.Phone),
		BookingDate:    cart.Date,
		Adults:         cart.Adults,
		Children:       cart.Children,
		OptionID:       cart.OptionID,
		UnitPrice:      cart.UnitPrice,
		Subtotal:       quote.Subtotal,
		DonationAmount: quote.Donation,
		Total:          quote.Total,
		PartnerAmount:  quote.Split.Partner,
		PlatformAmount: quote.Split.Platform,
		Currency:       quote.Currency,
		Status:         model.BookingStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
	}
	if sr := strings.TrimSpace(form.SpecialRequests); sr != "" {
		b.SpecialRequests = &sr
	}
	if err := s.Bookings.Create(ctx, b); err != nil {
		return checkoutResult{}, fmt.Errorf("%w: %v", ErrBookingFailed, err)
	}
	monitoring.BookingCreated(in.flow)
	s.publish(ctx, in.flow, cart, b)

	if in.beforeOrder != nil {
		if err := in.beforeOrder(); err != nil {
			return checkoutResult{booking: b}, err
		}
	}
	order, err := s.Payments.CreateOrder(ctx, payment.OrderRequest{
		BookingID:   b.ID,
		Amount:      b.Total,
		Currency:    b.Currency,
		Description: describe(cart),
		Reference:   uuid.NewString(),
		CallbackURL: s.cfg.CallbackURL,
		Customer:    payment.Customer{Name: b.CustomerName, Email: b.CustomerEmail, Phone: b.CustomerPhone},
	})
	monitoring.PaymentOrder(err == nil && order.OK())
	if err != nil {
		return checkoutResult{booking: b}, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if !order.OK() {
		return checkoutResult{booking: b}, fmt.Errorf("%w: no redirect url", ErrPaymentFailed)
	}

	return checkoutResult{booking: b, order: order, receipt: receiptFor(cart, b, s.now())}, nil
}

// resolveUser returns the booking owner.  A guest who asked for an account
// gets one with a throwaway password; any failure there leaves the booking
// as a guest booking.
func (s *Service) resolveUser(ctx context.Context, v Viewer, form model.BookingFormData) *uint64 {
	if v.UserID != 0 {
		id := v.UserID
		return &id
	}
	if !form.CreateAccount || s.Auth == nil {
		return nil
	}
	pw, err := utils.NewThrowawayPassword()
	if err != nil {
		logger.Log.Warn("[checkout] throwaway password failed; continuing as guest", "err", err)
		monitoring.GuestAccount(err)
		return nil
	}
	u, err := s.Auth.SignUp(ctx, form.Email, pw, auth.SignUpMetadata{FullName: form.Name, Phone: form.Phone})
	monitoring.GuestAccount(err)
	if err != nil || u == nil {
		logger.Log.Warn("[checkout] account creation failed; continuing as guest", "email", form.Email, "err", err)
		return nil
	}
	id := u.ID
	return &id
}

// resolveExperience maps a slug to the persisted experience id.  In demo
// mode any lookup problem falls back to the placeholder id.
func (s *Service) resolveExperience(ctx context.Context, slug string) (string, error) {
	exp, err := s.Experiences.GetBySlug(ctx, slug)
	if err == nil && exp != nil && exp.IsActive {
		return exp.ID, nil
	}
	if s.cfg.LookupMode == LookupDemo && s.cfg.PlaceholderExperienceID != "" {
		logger.Log.Warn("[checkout] experience lookup missed; using placeholder id", "slug", slug, "err", err)
		return s.cfg.PlaceholderExperienceID, nil
	}
	if err == nil || errors.Is(err, repository.ErrExperienceNotFound) {
		return "", ErrExperienceUnavailable
	}
	return "", fmt.Errorf("%w: lookup experience: %v", ErrBookingFailed, err)
}

func (s *Service) currency(c string) string {
	if c == "" {
		return s.cfg.Currency
	}
	return c
}

func (s *Service) publish(ctx context.Context, flow string, cart model.CartSelection, b *model.Booking) {
	if s.Events == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ev := queue.BookingCreatedEvent{
		BookingID:      b.ID,
		Flow:           flow,
		ExperienceID:   b.ExperienceID,
		ExperienceSlug: cart.ExperienceSlug,
		UserID:         b.UserID,
		CustomerEmail:  b.CustomerEmail,
		Date:           b.BookingDate,
		Adults:         b.Adults,
		Children:       b.Children,
		Subtotal:       b.Subtotal,
		Donation:       b.DonationAmount,
		Total:          b.Total,
		PartnerAmount:  b.PartnerAmount,
		PlatformAmount: b.PlatformAmount,
		Currency:       b.Currency,
		CreatedAt:      s.now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.PublishBookingCreated(pctx, ev); err != nil {
		logger.Log.Warn("[checkout] publish booking.created failed", "booking_id", b.ID, "err", err)
	}
}

func describe(cart model.CartSelection) string {
	title := cart.ExperienceTitle
	if title == "" {
		title = cart.ExperienceSlug
	}
	party := plural(cart.Adults, "adult", "adults")
	if cart.Children > 0 {
		party += " and " + plural(cart.Children, "child", "children")
	}
	return fmt.Sprintf("%s on %s for %s", title, cart.Date, party)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func receiptFor(cart model.CartSelection, b *model.Booking, now time.Time) model.Receipt {
	created := b.CreatedAt
	if created.IsZero() {
		created = now.UTC()
	}
	return model.Receipt{
		BookingID:       b.ID,
		ExperienceSlug:  cart.ExperienceSlug,
		ExperienceTitle: cart.ExperienceTitle,
		Date:            b.BookingDate,
		Adults:          b.Adults,
		Children:        b.Children,
		OptionID:        b.OptionID,
		Subtotal:        b.Subtotal,
		Donation:        b.DonationAmount,
		Total:           b.Total,
		PartnerAmount:   b.PartnerAmount,
		PlatformAmount:  b.PlatformAmount,
		Currency:        b.Currency,
		CustomerName:    b.CustomerName,
		CustomerEmail:   b.CustomerEmail,
		CreatedAt:       created,
	}
}
