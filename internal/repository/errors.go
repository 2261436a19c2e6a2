// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// booking core and the handlers to distinguish between failure scenarios
// without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of existing
// state.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

var (
	ErrExperienceNotFound = errors.New("experience not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrPartnerNotFound    = errors.New("partner not found")
)

// isDuplicateKey reports whether err is a MySQL unique constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
