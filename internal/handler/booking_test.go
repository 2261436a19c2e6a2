package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kijani-trails/conservation-booking/internal/booking"
	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/session"
)

type mockBooking struct{ mock.Mock }

func (m *mockBooking) SetCart(ctx context.Context, sid string, sel booking.Selection) (model.CartSelection, error) {
	args := m.Called(sid, sel)
	return args.Get(0).(model.CartSelection), args.Error(1)
}

func (m *mockBooking) Open(ctx context.Context, sid string, v booking.Viewer) (booking.WizardState, error) {
	args := m.Called(sid, v)
	return args.Get(0).(booking.WizardState), args.Error(1)
}

func (m *mockBooking) State(ctx context.Context, sid string) (booking.WizardState, error) {
	args := m.Called(sid)
	return args.Get(0).(booking.WizardState), args.Error(1)
}

func (m *mockBooking) UpdateForm(sid string, p booking.FormPatch) error {
	return m.Called(sid, p).Error(0)
}

func (m *mockBooking) Next(sid string) error   { return m.Called(sid).Error(0) }
func (m *mockBooking) Back(sid string) error   { return m.Called(sid).Error(0) }
func (m *mockBooking) Cancel(sid string) error { return m.Called(sid).Error(0) }

func (m *mockBooking) Confirm(ctx context.Context, sid string, v booking.Viewer) (booking.ConfirmResult, error) {
	args := m.Called(sid, v)
	return args.Get(0).(booking.ConfirmResult), args.Error(1)
}

func (m *mockBooking) AddToCart(ctx context.Context, sid string, sel booking.Selection) (model.MultiCartItem, error) {
	args := m.Called(sid, sel)
	return args.Get(0).(model.MultiCartItem), args.Error(1)
}

func (m *mockBooking) RemoveFromCart(ctx context.Context, sid, id string) error {
	return m.Called(sid, id).Error(0)
}

func (m *mockBooking) Items(ctx context.Context, sid string) ([]model.MultiCartItem, error) {
	args := m.Called(sid)
	items, _ := args.Get(0).([]model.MultiCartItem)
	return items, args.Error(1)
}

func (m *mockBooking) CheckoutItem(ctx context.Context, sid, id string) (model.CartSelection, error) {
	args := m.Called(sid, id)
	return args.Get(0).(model.CartSelection), args.Error(1)
}

func (m *mockBooking) BookDirectly(ctx context.Context, sid string, v booking.Viewer, sel booking.Selection, form model.BookingFormData) (booking.ConfirmResult, error) {
	args := m.Called(sid, v, sel, form)
	return args.Get(0).(booking.ConfirmResult), args.Error(1)
}

func newBookingHandler(t *testing.T) (*BookingHandler, *mockBooking, *session.MemoryStore) {
	t.Helper()
	svc := &mockBooking{}
	store := session.NewMemoryStore(0)
	return NewBookingHandler(svc, store), svc, store
}

func TestPutCart(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	sel := booking.Selection{ExperienceSlug: "rhino-walk", Date: "2026-04-02", Adults: 2}
	svc.On("SetCart", testSession, sel).Return(model.CartSelection{ExperienceSlug: "rhino-walk", Subtotal: 7000}, nil)

	c, rec := newCtx(http.MethodPut, "/v1/cart", `{"experience_slug":"rhino-walk","date":"2026-04-02","adults":2}`, 0)
	require.NoError(t, h.PutCart(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7000, decode(t, rec)["subtotal"])
}

func TestPutCart_InvalidDate(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("SetCart", testSession, mock.Anything).
		Return(model.CartSelection{}, &booking.ValidationError{Field: "date", Section: booking.SectionAvailability, Err: booking.ErrInvalidDate})

	c, rec := newCtx(http.MethodPut, "/v1/cart", `{"experience_slug":"rhino-walk","date":"yesterday","adults":2}`, 0)
	require.NoError(t, h.PutCart(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "availability", decode(t, rec)["section"])
}

func TestGetCart_EmptyIs404(t *testing.T) {
	h, _, _ := newBookingHandler(t)
	c, rec := newCtx(http.MethodGet, "/v1/cart", "", 0)
	require.NoError(t, h.GetCart(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCart_ReturnsStoredCart(t *testing.T) {
	h, _, store := newBookingHandler(t)
	_, err := store.SetCart(context.Background(), testSession, model.CartSelection{
		ExperienceSlug: "rhino-walk", Date: "2026-04-02", Adults: 2, UnitPrice: 3500, Currency: "KES",
	})
	require.NoError(t, err)

	c, rec := newCtx(http.MethodGet, "/v1/cart", "", 0)
	require.NoError(t, h.GetCart(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7000, decode(t, rec)["subtotal"])
}

func TestOpenWizard_PassesViewer(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("Open", testSession, booking.Viewer{UserID: 42}).
		Return(booking.WizardState{Open: true, Step: booking.StepContact, StepName: "CONTACT"}, nil)

	c, rec := newCtx(http.MethodPost, "/v1/wizard/open", "", 42)
	require.NoError(t, h.OpenWizard(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONTACT", decode(t, rec)["step_name"])
	svc.AssertExpectations(t)
}

func TestOpenWizard_NoCart(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("Open", testSession, booking.Viewer{}).Return(booking.WizardState{}, booking.ErrNoCart)

	c, rec := newCtx(http.MethodPost, "/v1/wizard/open", "", 0)
	require.NoError(t, h.OpenWizard(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchForm_ReturnsState(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("UpdateForm", testSession, mock.MatchedBy(func(p booking.FormPatch) bool {
		return p.Name != nil && *p.Name == "Amina" && p.Donation != nil && *p.Donation == 500 && p.Email == nil
	})).Return(nil)
	svc.On("State", testSession).Return(booking.WizardState{Open: true, Form: model.BookingFormData{Name: "Amina", Donation: 500}}, nil)

	c, rec := newCtx(http.MethodPatch, "/v1/wizard/form", `{"name":"Amina","donation":500}`, 0)
	require.NoError(t, h.PatchForm(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	form := decode(t, rec)["form"].(map[string]any)
	assert.Equal(t, "Amina", form["name"])
}

func TestNext_MissingContact(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("Next", testSession).Return(&booking.ValidationError{Field: "phone", Section: booking.SectionContact, Err: booking.ErrMissingContact})

	c, rec := newCtx(http.MethodPost, "/v1/wizard/next", "", 0)
	require.NoError(t, h.Next(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "phone", decode(t, rec)["field"])
	svc.AssertNotCalled(t, "State", mock.Anything)
}

func TestConfirm_Statuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"expired", booking.ErrHoldExpired, http.StatusGone},
		{"in flight", booking.ErrSubmissionInFlight, http.StatusConflict},
		{"gateway", fmt.Errorf("%w: declined", booking.ErrPaymentFailed), http.StatusBadGateway},
		{"terms", &booking.ValidationError{Field: "agree_terms", Section: booking.SectionConfirm, Err: booking.ErrTermsNotAccepted}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, svc, _ := newBookingHandler(t)
			res := booking.ConfirmResult{}
			if tc.err == nil {
				res = booking.ConfirmResult{BookingID: "bk-1", RedirectURL: "https://pay.test/o/1"}
			}
			svc.On("Confirm", testSession, booking.Viewer{}).Return(res, tc.err)

			c, rec := newCtx(http.MethodPost, "/v1/wizard/confirm", "", 0)
			require.NoError(t, h.Confirm(c))
			assert.Equal(t, tc.want, rec.Code)
			if tc.err == nil {
				assert.Equal(t, "https://pay.test/o/1", decode(t, rec)["redirect_url"])
			}
		})
	}
}

func TestItems_EmptyList(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("Items", testSession).Return(nil, nil)

	c, rec := newCtx(http.MethodGet, "/v1/cart/items", "", 0)
	require.NoError(t, h.ListItems(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestAddItem_Created(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("AddToCart", testSession, booking.Selection{ExperienceSlug: "family-canoe", Date: "2026-04-02", Adults: 1, Children: 1}).
		Return(model.MultiCartItem{ID: "it-1", ExperienceSlug: "family-canoe", Subtotal: 1500}, nil)

	c, rec := newCtx(http.MethodPost, "/v1/cart/items", `{"experience_slug":"family-canoe","date":"2026-04-02","adults":1,"children":1}`, 0)
	require.NoError(t, h.AddItem(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "it-1", decode(t, rec)["id"])
}

func TestRemoveAndCheckoutItem(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("RemoveFromCart", testSession, "it-1").Return(nil)
	svc.On("CheckoutItem", testSession, "it-2").Return(model.CartSelection{ExperienceSlug: "rhino-walk"}, nil)
	svc.On("CheckoutItem", testSession, "missing").Return(model.CartSelection{}, booking.ErrItemNotFound)

	c, rec := newCtx(http.MethodDelete, "/v1/cart/items/it-1", "", 0)
	c.SetParamNames("id")
	c.SetParamValues("it-1")
	require.NoError(t, h.RemoveItem(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = newCtx(http.MethodPost, "/v1/cart/items/it-2/checkout", "", 0)
	c.SetParamNames("id")
	c.SetParamValues("it-2")
	require.NoError(t, h.CheckoutItem(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newCtx(http.MethodPost, "/v1/cart/items/missing/checkout", "", 0)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	require.NoError(t, h.CheckoutItem(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBook_Direct(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	sel := booking.Selection{ExperienceSlug: "family-canoe", Date: "2026-04-02", Adults: 2}
	form := model.BookingFormData{Name: "Amina Otieno", Email: "amina@example.com", Phone: "+254700000001", AgreeTerms: true}
	svc.On("BookDirectly", testSession, booking.Viewer{}, sel, form).
		Return(booking.ConfirmResult{BookingID: "bk-9", RedirectURL: "https://pay.test/o/9"}, nil)

	body := `{"selection":{"experience_slug":"family-canoe","date":"2026-04-02","adults":2},
		"form":{"name":"Amina Otieno","email":"amina@example.com","phone":"+254700000001","agree_terms":true}}`
	c, rec := newCtx(http.MethodPost, "/v1/book", body, 0)
	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bk-9", decode(t, rec)["booking_id"])
}

func TestBook_AlreadyInCart(t *testing.T) {
	h, svc, _ := newBookingHandler(t)
	svc.On("BookDirectly", testSession, booking.Viewer{}, mock.Anything, mock.Anything).
		Return(booking.ConfirmResult{}, &booking.AlreadyInCartError{ItemID: "it-3"})

	c, rec := newCtx(http.MethodPost, "/v1/book", `{"selection":{"experience_slug":"rhino-walk"}}`, 0)
	require.NoError(t, h.Book(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "it-3", decode(t, rec)["item_id"])
}

func TestConfirmation_ConsumedOnce(t *testing.T) {
	h, _, store := newBookingHandler(t)
	require.NoError(t, store.SaveReceipt(context.Background(), testSession, model.Receipt{BookingID: "bk-1", Total: 7500, Currency: "KES"}))

	c, rec := newCtx(http.MethodGet, "/v1/bookings/confirmation", "", 0)
	require.NoError(t, h.Confirmation(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bk-1", decode(t, rec)["booking_id"])

	c, rec = newCtx(http.MethodGet, "/v1/bookings/confirmation", "", 0)
	require.NoError(t, h.Confirmation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmationPDF_DoesNotConsume(t *testing.T) {
	h, _, store := newBookingHandler(t)
	require.NoError(t, store.SaveReceipt(context.Background(), testSession, model.Receipt{
		BookingID: "bk-1", ExperienceSlug: "rhino-walk", Date: "2026-04-02", Adults: 2,
		Subtotal: 7000, Donation: 500, Total: 7500, PartnerAmount: 6800, PlatformAmount: 700, Currency: "KES",
	}))

	c, rec := newCtx(http.MethodGet, "/v1/bookings/confirmation.pdf", "", 0)
	require.NoError(t, h.ConfirmationPDF(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "receipt-bk-1.pdf")
	assert.True(t, len(rec.Body.Bytes()) > 4 && string(rec.Body.Bytes()[:4]) == "%PDF")

	r, err := store.PeekReceipt(context.Background(), testSession)
	require.NoError(t, err)
	assert.NotNil(t, r)
}
