package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/pricing"
	"github.com/kijani-trails/conservation-booking/internal/session"
)

// AddToCart starts the hold if it is not running and queues the selection
// in the multi-item cart.  Identical selections may be queued more than
// once; each gets its own id.
func (s *Service) AddToCart(ctx context.Context, sessionID string, sel Selection) (model.MultiCartItem, error) {
	if sessionID == "" {
		return model.MultiCartItem{}, session.ErrNoSession
	}
	cart, _, err := s.priceSelection(ctx, sel)
	if err != nil {
		return model.MultiCartItem{}, err
	}

	st := s.state(sessionID)
	st.mu.Lock()
	s.startHoldLocked(sessionID, st)
	st.expiredNotice = false
	st.mu.Unlock()

	item := model.MultiCartItem{
		ExperienceSlug:     cart.ExperienceSlug,
		ExperienceTitle:    cart.ExperienceTitle,
		Date:               cart.Date,
		Adults:             cart.Adults,
		Children:           cart.Children,
		OptionID:           cart.OptionID,
		UnitPrice:          cart.UnitPrice,
		ChildHalfPriceRule: cart.ChildHalfPriceRule,
		IsGroupPricing:     cart.IsGroupPricing,
		Currency:           cart.Currency,
	}
	id, err := s.Store.AddItem(ctx, sessionID, item)
	if err != nil {
		return model.MultiCartItem{}, fmt.Errorf("add cart item: %w", err)
	}
	item.ID = id
	item.Subtotal, _ = pricing.ComputeSubtotal(item.UnitPrice, item.Adults, item.Children, item.ChildHalfPriceRule, item.IsGroupPricing)
	return item, nil
}

// RemoveFromCart drops a queued item.  Unknown ids are ignored.
func (s *Service) RemoveFromCart(ctx context.Context, sessionID, id string) error {
	return s.Store.RemoveItem(ctx, sessionID, id)
}

// Items lists the multi-item cart.
func (s *Service) Items(ctx context.Context, sessionID string) ([]model.MultiCartItem, error) {
	return s.Store.Items(ctx, sessionID)
}

// findQueued returns the id of a queued item with the same selection, or "".
func (s *Service) findQueued(ctx context.Context, sessionID string, sel Selection) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(sel.ExperienceSlug))
	date := strings.TrimSpace(sel.Date)
	ok, err := s.Store.Contains(ctx, sessionID, slug, date, sel.Adults, sel.Children)
	if err != nil || !ok {
		return "", err
	}
	items, err := s.Store.Items(ctx, sessionID)
	if err != nil {
		return "", err
	}
	for _, it := range items {
		if it.SameSelection(slug, date, sel.Adults, sel.Children) {
			return it.ID, nil
		}
	}
	return "", nil
}

// BookDirectly books a selection in one step, guests included.  A
// selection already queued in the multi-item cart is refused with an
// *AlreadyInCartError so the traveler checks it out or removes it instead.
func (s *Service) BookDirectly(ctx context.Context, sessionID string, v Viewer, sel Selection, form model.BookingFormData) (ConfirmResult, error) {
	if sessionID == "" {
		return ConfirmResult{}, session.ErrNoSession
	}
	id, err := s.findQueued(ctx, sessionID, sel)
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("check cart: %w", err)
	}
	if id != "" {
		return ConfirmResult{}, &AlreadyInCartError{ItemID: id}
	}
	if !form.AgreeTerms {
		return ConfirmResult{}, invalid("agree_terms", SectionConfirm, ErrTermsNotAccepted)
	}

	st := s.state(sessionID)
	st.mu.Lock()
	if st.processing {
		st.mu.Unlock()
		return ConfirmResult{}, ErrSubmissionInFlight
	}
	st.processing = true
	epoch := st.epoch
	st.mu.Unlock()

	cart, _, err := s.priceSelection(ctx, sel)
	var res checkoutResult
	if err == nil {
		res, err = s.checkout(ctx, checkoutInput{
			flow:        FlowDirect,
			viewer:      v,
			cart:        cart,
			form:        form,
			beforeOrder: func() error { return s.enterPayment(st, epoch) },
		})
	}
	return s.finishSubmission(ctx, sessionID, st, res, err, false)
}

// CheckoutItem moves a queued item into the single cart so the wizard can
// open on it.
func (s *Service) CheckoutItem(ctx context.Context, sessionID, id string) (model.CartSelection, error) {
	items, err := s.Store.Items(ctx, sessionID)
	if err != nil {
		return model.CartSelection{}, err
	}
	for _, it := range items {
		if it.ID != id {
			continue
		}
		cart, err := s.Store.SetCart(ctx, sessionID, model.CartSelection{
			ExperienceSlug:     it.ExperienceSlug,
			ExperienceTitle:    it.ExperienceTitle,
			Date:               it.Date,
			Adults:             it.Adults,
			Children:           it.Children,
			OptionID:           it.OptionID,
			UnitPrice:          it.UnitPrice,
			ChildHalfPriceRule: it.ChildHalfPriceRule,
			IsGroupPricing:     it.IsGroupPricing,
			Currency:           it.Currency,
		})
		if err != nil {
			return model.CartSelection{}, err
		}
		if err := s.Store.RemoveItem(ctx, sessionID, id); err != nil {
			return model.CartSelection{}, err
		}
		return cart, nil
	}
	return model.CartSelection{}, ErrItemNotFound
}
