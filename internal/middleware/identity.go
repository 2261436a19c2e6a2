package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by the middleware in this package.
const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxSessionID = "session_id"
)

// UserID returns the authenticated user's id, or 0 for guests.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(ctxUserID).(uint64)
	return id
}

// Role returns the authenticated user's role, or "".
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// SessionID returns the booking session id assigned by Session.
func SessionID(c echo.Context) string {
	s, _ := c.Get(ctxSessionID).(string)
	return s
}

// subject is the identity used in rate limit keys.
func subject(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
