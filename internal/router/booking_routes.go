package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kijani-trails/conservation-booking/internal/handler"
	"github.com/kijani-trails/conservation-booking/internal/middleware"
)

// BookingMiddleware carries the middleware chains built in main from the
// Redis-backed rate limiter and response cache.  Either may be a no-op.
type BookingMiddleware struct {
	JWTSecret string
	Session   echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterExperiences registers the public experience pages.  Experience
// details are cached; quotes depend on the query string and are cheap, so
// they are not.
func RegisterExperiences(e *echo.Echo, h *handler.ExperienceHandler, mw BookingMiddleware) {
	g := e.Group("/v1/experiences")
	g.GET("/:slug", h.Get, mw.Cache)
	g.GET("/:slug/quote", h.Quote)
}

// RegisterBooking registers the cart, wizard and direct booking endpoints.
// Guests and signed-in travelers share every route: the optional JWT
// middleware identifies the viewer when a valid token is present and the
// session middleware pins the request to a booking session.  Routes that
// start or submit a checkout are rate limited.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, mw BookingMiddleware) {
	g := e.Group("/v1", middleware.OptionalJWT(mw.JWTSecret), mw.Session)

	// single-experience cart
	g.PUT("/cart", h.PutCart)
	g.GET("/cart", h.GetCart)
	g.DELETE("/cart", h.ClearCart)

	// multi-item cart
	g.GET("/cart/items", h.ListItems)
	g.POST("/cart/items", h.AddItem, mw.RateLimit)
	g.DELETE("/cart/items/:id", h.RemoveItem)
	g.POST("/cart/items/:id/checkout", h.CheckoutItem)

	w := g.Group("/wizard", mw.RateLimit)
	w.POST("/open", h.OpenWizard)
	w.GET("", h.GetWizard)
	w.PATCH("/form", h.PatchForm)
	w.POST("/next", h.Next)
	w.POST("/back", h.Back)
	w.POST("/cancel", h.Cancel)
	w.POST("/confirm", h.Confirm)

	g.POST("/book", h.Book, mw.RateLimit)

	// The receipt is consumed by the JSON confirmation; the PDF can be
	// downloaded until then.
	g.GET("/bookings/confirmation", h.Confirmation)
	g.GET("/bookings/confirmation.pdf", h.ConfirmationPDF)
}

// RegisterPayments registers the gateway callback.  It is authenticated by
// the request signature, not by a user token.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler) {
	e.POST("/v1/payments/callback", h.Callback)
}
