package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kijani-trails/conservation-booking/internal/handler"
	"github.com/kijani-trails/conservation-booking/internal/middleware"
	"github.com/kijani-trails/conservation-booking/internal/model"
)

// RegisterLedger registers the public allocation ledger and the partner
// earnings endpoint.  Earnings require a valid JWT and the PARTNER role;
// the handler only ever reads the caller's own partner.
func RegisterLedger(e *echo.Echo, h *handler.LedgerHandler, jwtSecret string) {
	e.GET("/v1/ledger", h.Summary)

	g := e.Group(
		"/v1/partner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolePartner),
	)
	g.GET("/earnings", h.Earnings)
}
