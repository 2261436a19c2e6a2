package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	SessionCookie = "bk_session"
	SessionHeader = "X-Session-ID"
)

// Session assigns every request a booking session id.  An id sent in the
// X-Session-ID header wins over the bk_session cookie; malformed ids are
// replaced.  A new id is returned in both the cookie and the header.
func Session(ttl time.Duration, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := c.Request().Header.Get(SessionHeader)
			if sid == "" {
				if ck, err := c.Cookie(SessionCookie); err == nil {
					sid = ck.Value
				}
			}
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(ttl / time.Second),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Response().Header().Set(SessionHeader, sid)
			c.Set(ctxSessionID, sid)
			return next(c)
		}
	}
}
