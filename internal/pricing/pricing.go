// Package pricing computes booking prices and the partner/platform revenue
// split.  All amounts are integers in the smallest currency unit.  Fractional
// intermediate values are rounded once, half-up, using decimal arithmetic so
// that no floating point value ever touches a currency amount.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

var (
	// ErrInvalidParty is returned when adults < 1 or children < 0.
	ErrInvalidParty = errors.New("invalid party size")
	// ErrInvalidPrice is returned for a negative unit price.
	ErrInvalidPrice = errors.New("invalid unit price")
	// ErrNegativeAmount is returned when a subtotal or donation is negative.
	ErrNegativeAmount = errors.New("negative amount")
	// ErrAmountTooLarge is returned when an amount exceeds MaxAmount.
	ErrAmountTooLarge = errors.New("amount too large")
)

// MaxAmount caps every price, subtotal and donation in minor units.  Sums of
// two capped amounts stay far inside int64.
const MaxAmount int64 = 1_000_000_000_000

var (
	partnerShare = decimal.RequireFromString("0.90")
	half         = decimal.RequireFromString("0.5")
)

// roundHalfUp rounds a non-negative decimal to a whole minor unit.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// ChildUnitPrice returns the per-child price.  With the half-price rule the
// child pays unitPrice/2 rounded half-up.
func ChildUnitPrice(unitPrice int64, childHalfPrice bool) int64 {
	if !childHalfPrice {
		return unitPrice
	}
	return roundHalfUp(decimal.NewFromInt(unitPrice).Mul(half))
}

// ComputeSubtotal prices a party.  Group pricing is a flat price regardless
// of party size.  Invalid input is rejected, never clamped.
func ComputeSubtotal(unitPrice int64, adults, children int, childHalfPrice, isGroupPricing bool) (int64, error) {
	if adults < 1 || children < 0 {
		return 0, ErrInvalidParty
	}
	if unitPrice < 0 {
		return 0, ErrInvalidPrice
	}
	if unitPrice > MaxAmount {
		return 0, ErrAmountTooLarge
	}
	if isGroupPricing {
		return unitPrice, nil
	}
	sum := decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(int64(adults))).
		Add(decimal.NewFromInt(ChildUnitPrice(unitPrice, childHalfPrice)).Mul(decimal.NewFromInt(int64(children))))
	if sum.GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, ErrAmountTooLarge
	}
	return sum.IntPart(), nil
}

// ComputeSplit allocates 90% of the subtotal (rounded half-up) to the
// partner and the remainder to the platform.  The donation is added to the
// partner side in full.
func ComputeSplit(subtotal, donation int64) (model.Split, error) {
	if subtotal < 0 || donation < 0 {
		return model.Split{}, ErrNegativeAmount
	}
	if subtotal > MaxAmount || donation > MaxAmount {
		return model.Split{}, ErrAmountTooLarge
	}
	partnerBase := roundHalfUp(decimal.NewFromInt(subtotal).Mul(partnerShare))
	return model.Split{
		Partner:  partnerBase + donation,
		Platform: subtotal - partnerBase,
	}, nil
}

// ComputeTotal is the amount charged to the traveler.  Both inputs must
// already have passed ComputeSplit.
func ComputeTotal(subtotal, donation int64) int64 {
	return subtotal + donation
}

// Quote bundles every derived price of a selection.
type Quote struct {
	UnitPrice      int64       `json:"unit_price"`
	ChildUnitPrice int64       `json:"child_unit_price"`
	Subtotal       int64       `json:"subtotal"`
	Donation       int64       `json:"donation"`
	Total          int64       `json:"total"`
	Split          model.Split `json:"split"`
	Currency       string      `json:"currency"`
}

// Input describes a selection to price.
type Input struct {
	UnitPrice      int64
	Adults         int
	Children       int
	ChildHalfPrice bool
	IsGroupPricing bool
	Donation       int64
	Currency       string
}

// NewQuote prices a selection in one pass.
func NewQuote(in Input) (Quote, error) {
	subtotal, err := ComputeSubtotal(in.UnitPrice, in.Adults, in.Children, in.ChildHalfPrice, in.IsGroupPricing)
	if err != nil {
		return Quote{}, err
	}
	split, err := ComputeSplit(subtotal, in.Donation)
	if err != nil {
		return Quote{}, err
	}
	child := ChildUnitPrice(in.UnitPrice, in.ChildHalfPrice)
	if in.IsGroupPricing {
		child = 0
	}
	return Quote{
		UnitPrice:      in.UnitPrice,
		ChildUnitPrice: child,
		Subtotal:       subtotal,
		Donation:       in.Donation,
		Total:          ComputeTotal(subtotal, in.Donation),
		Split:          split,
		Currency:       in.Currency,
	}, nil
}
