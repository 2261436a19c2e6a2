// Package session stores the in-progress booking selection of a browsing
// session: the single-experience cart, the multi-item cart and the receipt
// handed to the post-payment confirmation page.  It is not the system of
// record; the bookings table is.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/pricing"
)

// ErrNoSession is returned when an operation is attempted without a session id.
var ErrNoSession = errors.New("missing session id")

// Store is the cart/session state store.
type Store interface {
	// SetCart overwrites the session's single cart.  Subtotal and Split are
	// computed here so a later price change cannot alter a stored cart.
	SetCart(ctx context.Context, sessionID string, sel model.CartSelection) (model.CartSelection, error)
	// GetCart returns nil, nil when the session has no cart.
	GetCart(ctx context.Context, sessionID string) (*model.CartSelection, error)
	ClearCart(ctx context.Context, sessionID string) error

	// AddItem appends an item under a fresh id and returns that id.
	AddItem(ctx context.Context, sessionID string, item model.MultiCartItem) (string, error)
	RemoveItem(ctx context.Context, sessionID, id string) error
	Items(ctx context.Context, sessionID string) ([]model.MultiCartItem, error)
	// Contains compares by value (slug, date, adults, children), never by id.
	Contains(ctx context.Context, sessionID, slug, date string, adults, children int) (bool, error)

	SaveReceipt(ctx context.Context, sessionID string, r model.Receipt) error
	// ConsumeReceipt returns the stored receipt and removes it.
	ConsumeReceipt(ctx context.Context, sessionID string) (*model.Receipt, error)
	// PeekReceipt returns the stored receipt without removing it.
	PeekReceipt(ctx context.Context, sessionID string) (*model.Receipt, error)

	// ClearSession drops the cart and all multi-cart items.
	ClearSession(ctx context.Context, sessionID string) error
}

// Derive recomputes the derived fields of a cart selection.
func Derive(sel model.CartSelection, now time.Time) (model.CartSelection, error) {
	subtotal, err := pricing.ComputeSubtotal(sel.UnitPrice, sel.Adults, sel.Children, sel.ChildHalfPriceRule, sel.IsGroupPricing)
	if err != nil {
		return model.CartSelection{}, fmt.Errorf("price cart: %w", err)
	}
	split, err := pricing.ComputeSplit(subtotal, 0)
	if err != nil {
		return model.CartSelection{}, fmt.Errorf("split cart: %w", err)
	}
	if sel.OptionID == "" {
		sel.OptionID = model.OptionStandard
	}
	sel.Subtotal = subtotal
	sel.Split = split
	sel.UpdatedAt = now.UTC()
	return sel, nil
}

// deriveItem prices a multi-cart item.
func deriveItem(it model.MultiCartItem) (model.MultiCartItem, error) {
	subtotal, err := pricing.ComputeSubtotal(it.UnitPrice, it.Adults, it.Children, it.ChildHalfPriceRule, it.IsGroupPricing)
	if err != nil {
		return model.MultiCartItem{}, fmt.Errorf("price item: %w", err)
	}
	if it.OptionID == "" {
		it.OptionID = model.OptionStandard
	}
	it.Subtotal = subtotal
	return it, nil
}
