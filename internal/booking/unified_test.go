package booking

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/queue"
)

func guestForm() model.BookingFormData {
	return model.BookingFormData{
		Name: "Otieno Ouma", Email: "Otieno@Example.com ", Phone: "+254722000000", AgreeTerms: true,
	}
}

func TestAddToCart_QueuesDuplicatesUnderDistinctIDs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.svc.AddToCart(ctx, "s1", rhinoSelection())
	require.NoError(t, err)
	b, err := h.svc.AddToCart(ctx, "s1", rhinoSelection())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int64(7000), a.Subtotal)

	items, err := h.svc.Items(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, h.svc.RemoveFromCart(ctx, "s1", a.ID))
	items, _ = h.svc.Items(ctx, "s1")
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ID)
}

func TestAddToCart_StartsHoldOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.AddToCart(ctx, "s1", rhinoSelection())
	require.NoError(t, err)

	tm := h.timers.Get("s1")
	require.NotNil(t, tm)
	for i := 0; i < 10; i++ {
		tm.Tick()
	}
	_, err = h.svc.AddToCart(ctx, "s1", Selection{ExperienceSlug: "boat-charter", Date: testDate, Adults: 4})
	require.NoError(t, err)
	assert.Equal(t, 890, h.svc.Hold("s1").RemainingSeconds)
}

func TestAddToCart_RejectsBadSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.AddToCart(ctx, "s1", Selection{ExperienceSlug: "rhino-walk", Date: testDate})
	assert.ErrorIs(t, err, ErrInvalidParty)

	_, err = h.svc.AddToCart(ctx, "s1", Selection{ExperienceSlug: "family-canoe", Date: testDate, Adults: 5, Children: 2})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "party", ve.Field)

	_, err = h.svc.AddToCart(ctx, "s1", Selection{ExperienceSlug: "night-drive", Date: testDate, Adults: 1})
	assert.ErrorIs(t, err, ErrExperienceUnavailable)

	_, err = h.svc.AddToCart(ctx, "s1", Selection{ExperienceSlug: "rhino-walk", Date: testDate, Adults: 1, OptionID: "vip"})
	assert.ErrorIs(t, err, ErrWrongOption)

	assert.Nil(t, h.svc.Hold("s1"))
}

func TestSetCart_UsesPremiumPrice(t *testing.T) {
	h := newHarness(t)
	cart, err := h.svc.SetCart(context.Background(), "s1", Selection{
		ExperienceSlug: "Family-Canoe", Date: testDate, Adults: 2, Children: 1, OptionID: model.OptionPremium,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), cart.UnitPrice)
	// 2 x 1500 + 750 for the child
	assert.Equal(t, int64(3750), cart.Subtotal)
	assert.Equal(t, "Family canoe", cart.ExperienceTitle)
}

func TestBookDirectly_RefusesSelectionAlreadyInCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item, err := h.svc.AddToCart(ctx, "s1", rhinoSelection())
	require.NoError(t, err)

	_, err = h.svc.BookDirectly(ctx, "s1", Viewer{}, rhinoSelection(), guestForm())
	require.ErrorIs(t, err, ErrAlreadyInCart)
	var dup *AlreadyInCartError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, item.ID, dup.ItemID)
	assert.Empty(t, h.bookings.all())
}

func TestBookDirectly_GuestBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.AddToCart(ctx, "s1", rhinoSelection())
	require.NoError(t, err)

	sel := Selection{ExperienceSlug: "family-canoe", Date: testDate, Adults: 2, Children: 1}
	res, err := h.svc.BookDirectly(ctx, "s1", Viewer{}, sel, guestForm())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/o/1", res.RedirectURL)
	assert.Equal(t, int64(2500), res.Receipt.Subtotal)
	assert.Equal(t, int64(2250), res.Receipt.PartnerAmount)
	assert.Equal(t, int64(250), res.Receipt.PlatformAmount)

	b := h.bookings.all()[0]
	assert.Nil(t, b.UserID)
	assert.Equal(t, "exp-2", b.ExperienceID)
	assert.Equal(t, "otieno@example.com", b.CustomerEmail)

	// The queued item stays; only the direct booking was handed off.
	items, _ := h.svc.Items(ctx, "s1")
	assert.Len(t, items, 1)
	assert.False(t, h.svc.Hold("s1").IsActive)

	rec, err := h.store.PeekReceipt(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, res.BookingID, rec.BookingID)

	h.events.AssertCalled(t, "PublishBookingCreated", mock.Anything, mock.MatchedBy(func(ev queue.BookingCreatedEvent) bool {
		return ev.Flow == FlowDirect && ev.ExperienceSlug == "family-canoe"
	}))
}

func TestBookDirectly_GroupPricing(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.BookDirectly(context.Background(), "s1", Viewer{},
		Selection{ExperienceSlug: "boat-charter", Date: testDate, Adults: 4, Children: 2}, guestForm())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), res.Receipt.Subtotal)
	assert.Equal(t, int64(4500), res.Receipt.PartnerAmount)
}

func TestBookDirectly_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	form := guestForm()
	form.AgreeTerms = false
	_, err := h.svc.BookDirectly(ctx, "s1", Viewer{}, rhinoSelection(), form)
	assert.ErrorIs(t, err, ErrTermsNotAccepted)

	form = guestForm()
	form.Name = " "
	_, err = h.svc.BookDirectly(ctx, "s1", Viewer{}, rhinoSelection(), form)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, SectionContact, ve.Section)

	form = guestForm()
	form.Donation = -5
	_, err = h.svc.BookDirectly(ctx, "s1", Viewer{}, rhinoSelection(), form)
	assert.ErrorIs(t, err, ErrInvalidDonation)

	form = guestForm()
	form.Donation = math.MaxInt64 - 1000
	_, err = h.svc.BookDirectly(ctx, "s1", Viewer{}, rhinoSelection(), form)
	assert.ErrorIs(t, err, ErrInvalidDonation)
	assert.Empty(t, h.bookings.all())
	assert.Zero(t, h.gateway.calls())

	_, err = h.svc.BookDirectly(ctx, "s1", Viewer{}, Selection{ExperienceSlug: "rhino-walk", Date: "2027-06-01", Adults: 1}, guestForm())
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, SectionAvailability, ve.Section)

	_, err = h.svc.BookDirectly(ctx, "", Viewer{}, rhinoSelection(), guestForm())
	assert.Error(t, err)

	assert.Empty(t, h.bookings.all())

	// Failures release the guard.
	_, err = h.svc.BookDirectly(ctx, "s1", Viewer{}, rhinoSelection(), guestForm())
	assert.NoError(t, err)
}

func TestBookDirectly_PaymentFailureKeepsHold(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.AddToCart(ctx, "s1", Selection{ExperienceSlug: "boat-charter", Date: testDate, Adults: 1})
	require.NoError(t, err)
	h.gateway.set(h.gateway.result, errors.New("503 from gateway"))

	_, err = h.svc.BookDirectly(ctx, "s1", Viewer{}, rhinoSelection(), guestForm())
	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.True(t, h.svc.Hold("s1").IsActive)
	items, _ := h.svc.Items(ctx, "s1")
	assert.Len(t, items, 1)
}

func TestCheckoutItem_MovesItemIntoCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item, err := h.svc.AddToCart(ctx, "s1", Selection{ExperienceSlug: "family-canoe", Date: testDate, Adults: 1, Children: 1})
	require.NoError(t, err)

	cart, err := h.svc.CheckoutItem(ctx, "s1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, "family-canoe", cart.ExperienceSlug)
	assert.Equal(t, int64(1500), cart.Subtotal)

	items, _ := h.svc.Items(ctx, "s1")
	assert.Empty(t, items)

	st, err := h.svc.Open(ctx, "s1", Viewer{})
	require.NoError(t, err)
	require.NotNil(t, st.Cart)
	assert.Equal(t, "family-canoe", st.Cart.ExperienceSlug)

	_, err = h.svc.CheckoutItem(ctx, "s1", "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSweep_ForgetsIdleSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.AddToCart(ctx, "busy", rhinoSelection())
	require.NoError(t, err)
	_, err = h.svc.State(ctx, "idle")
	require.NoError(t, err)
	_, err = h.svc.AddToCart(ctx, "done", rhinoSelection())
	require.NoError(t, err)
	require.NoError(t, h.svc.Cancel("done"))

	h.svc.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	assert.Equal(t, 2, h.svc.Sweep(time.Hour))
	assert.Equal(t, 1, h.timers.Len())
	assert.NotNil(t, h.timers.Get("busy"))
}
