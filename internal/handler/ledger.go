package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kijani-trails/conservation-booking/internal/middleware"
	"github.com/kijani-trails/conservation-booking/internal/model"
	"github.com/kijani-trails/conservation-booking/internal/repository"
)

type LedgerReader interface {
	Summary(ctx context.Context) ([]repository.LedgerEntry, error)
}

type PartnerReader interface {
	GetByUserID(ctx context.Context, userID uint64) (*model.Partner, error)
	Earnings(ctx context.Context, partnerID string) (repository.PartnerEarnings, error)
}

// LedgerHandler serves the public allocation ledger and partner earnings.
type LedgerHandler struct {
	Ledger   LedgerReader
	Partners PartnerReader
}

func NewLedgerHandler(l LedgerReader, p PartnerReader) *LedgerHandler {
	return &LedgerHandler{Ledger: l, Partners: p}
}

// Summary: GET /v1/ledger
func (h *LedgerHandler) Summary(c echo.Context) error {
	entries, err := h.Ledger.Summary(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	var partner, platform, donations int64
	for _, e := range entries {
		partner += e.PartnerAmount
		platform += e.PlatformAmount
		donations += e.Donations
	}
	return c.JSON(http.StatusOK, echo.Map{
		"partners": entries,
		"totals": echo.Map{
			"partner_amount":  partner,
			"platform_amount": platform,
			"donations":       donations,
		},
	})
}

// Earnings returns the signed-in partner's totals: GET /v1/partner/earnings
func (h *LedgerHandler) Earnings(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.Partners.GetByUserID(ctx, middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	out, err := h.Partners.Earnings(ctx, p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"partner": echo.Map{"id": p.ID, "name": p.Name, "project": p.Project}, "earnings": out})
}
