package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kijani-trails/conservation-booking/internal/booking"
	"github.com/kijani-trails/conservation-booking/internal/middleware"
	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/receipt"
)

// BookingService is the booking core as the HTTP layer drives it.
type BookingService interface {
	SetCart(ctx context.Context, sessionID string, sel booking.Selection) (model.CartSelection, error)
	Open(ctx context.Context, sessionID string, v booking.Viewer) (booking.WizardState, error)
	State(ctx context.Context, sessionID string) (booking.WizardState, error)
	UpdateForm(sessionID string, p booking.FormPatch) error
	Next(sessionID string) error
	Back(sessionID string) error
	Cancel(sessionID string) error
	Confirm(ctx context.Context, sessionID string, v booking.Viewer) (booking.ConfirmResult, error)
	AddToCart(ctx context.Context, sessionID string, sel booking.Selection) (model.MultiCartItem, error)
	RemoveFromCart(ctx context.Context, sessionID, id string) error
	Items(ctx context.Context, sessionID string) ([]model.MultiCartItem, error)
	CheckoutItem(ctx context.Context, sessionID, id string) (model.CartSelection, error)
	BookDirectly(ctx context.Context, sessionID string, v booking.Viewer, sel booking.Selection, form model.BookingFormData) (booking.ConfirmResult, error)
}

// SessionReader exposes the session data read directly by the handlers.
type SessionReader interface {
	GetCart(ctx context.Context, sessionID string) (*model.CartSelection, error)
	ClearCart(ctx context.Context, sessionID string) error
	ConsumeReceipt(ctx context.Context, sessionID string) (*model.Receipt, error)
	PeekReceipt(ctx context.Context, sessionID string) (*model.Receipt, error)
}

type BookingHandler struct {
	Svc      BookingService
	Sessions SessionReader
}

func NewBookingHandler(svc BookingService, sessions SessionReader) *BookingHandler {
	return &BookingHandler{Svc: svc, Sessions: sessions}
}

func viewer(c echo.Context) booking.Viewer {
	return booking.Viewer{UserID: middleware.UserID(c)}
}

// ----- single cart -----

// PutCart replaces the session cart: PUT /v1/cart
func (h *BookingHandler) PutCart(c echo.Context) error {
	var sel booking.Selection
	if err := c.Bind(&sel); err != nil {
		return badRequest(c, "invalid body")
	}
	cart, err := h.Svc.SetCart(c.Request().Context(), middleware.SessionID(c), sel)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// GetCart returns the session cart or 404 when it is empty.
func (h *BookingHandler) GetCart(c echo.Context) error {
	cart, err := h.Sessions.GetCart(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return fail(c, err)
	}
	if cart == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cart is empty"})
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *BookingHandler) ClearCart(c echo.Context) error {
	if err := h.Sessions.ClearCart(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- wizard -----

func (h *BookingHandler) OpenWizard(c echo.Context) error {
	state, err := h.Svc.Open(c.Request().Context(), middleware.SessionID(c), viewer(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *BookingHandler) GetWizard(c echo.Context) error {
	state, err := h.Svc.State(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// stateAfter runs a wizard transition and answers with the new state.
func (h *BookingHandler) stateAfter(c echo.Context, op func(string) error) error {
	sid := middleware.SessionID(c)
	if err := op(sid); err != nil {
		return fail(c, err)
	}
	state, err := h.Svc.State(c.Request().Context(), sid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// PatchForm: PATCH /v1/wizard/form with any subset of the form fields.
func (h *BookingHandler) PatchForm(c echo.Context) error {
	var p booking.FormPatch
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid body")
	}
	return h.stateAfter(c, func(sid string) error { return h.Svc.UpdateForm(sid, p) })
}

func (h *BookingHandler) Next(c echo.Context) error   { return h.stateAfter(c, h.Svc.Next) }
func (h *BookingHandler) Back(c echo.Context) error   { return h.stateAfter(c, h.Svc.Back) }
func (h *BookingHandler) Cancel(c echo.Context) error { return h.stateAfter(c, h.Svc.Cancel) }

// Confirm submits the wizard and returns the payment redirect.
func (h *BookingHandler) Confirm(c echo.Context) error {
	res, err := h.Svc.Confirm(c.Request().Context(), middleware.SessionID(c), viewer(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ----- multi-item cart -----

func (h *BookingHandler) ListItems(c echo.Context) error {
	items, err := h.Svc.Items(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return fail(c, err)
	}
	if items == nil {
		items = []model.MultiCartItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *BookingHandler) AddItem(c echo.Context) error {
	var sel booking.Selection
	if err := c.Bind(&sel); err != nil {
		return badRequest(c, "invalid body")
	}
	item, err := h.Svc.AddToCart(c.Request().Context(), middleware.SessionID(c), sel)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *BookingHandler) RemoveItem(c echo.Context) error {
	if err := h.Svc.RemoveFromCart(c.Request().Context(), middleware.SessionID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckoutItem moves a queued item into the single cart.
func (h *BookingHandler) CheckoutItem(c echo.Context) error {
	cart, err := h.Svc.CheckoutItem(c.Request().Context(), middleware.SessionID(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cart)
}

type bookReq struct {
	Selection booking.Selection     `json:"selection"`
	Form      model.BookingFormData `json:"form"`
}

// Book is the direct booking: POST /v1/book
func (h *BookingHandler) Book(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.Svc.BookDirectly(c.Request().Context(), middleware.SessionID(c), viewer(c), req.Selection, req.Form)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// ----- confirmation -----

// Confirmation returns the impact receipt once; a second read is a 404.
func (h *BookingHandler) Confirmation(c echo.Context) error {
	r, err := h.Sessions.ConsumeReceipt(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return fail(c, err)
	}
	if r == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no confirmation"})
	}
	return c.JSON(http.StatusOK, r)
}

// ConfirmationPDF renders the stored receipt without consuming it.
func (h *BookingHandler) ConfirmationPDF(c echo.Context) error {
	r, err := h.Sessions.PeekReceipt(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return fail(c, err)
	}
	if r == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no confirmation"})
	}
	pdf, err := receipt.Render(*r)
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, r.BookingID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
