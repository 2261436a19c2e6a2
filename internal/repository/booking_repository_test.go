package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

var bookingCols = []string{"id", "experience_id", "user_id", "customer_name", "customer_email", "customer_phone",
	"booking_date", "adults", "children", "option_id", "unit_price", "subtotal", "donation_amount", "total",
	"partner_amount", "platform_amount", "currency", "status", "payment_status", "payment_ref",
	"special_requests", "created_at", "updated_at"}

func TestBookingRepo_CreateGuest(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	b := &model.Booking{
		ExperienceID: "exp-1", CustomerName: "Wanjiru", CustomerEmail: "w@example.com", CustomerPhone: "+254700000000",
		BookingDate: "2026-04-02", Adults: 2, OptionID: model.OptionStandard, UnitPrice: 3500,
		Subtotal: 7000, DonationAmount: 500, Total: 7500, PartnerAmount: 6800, PlatformAmount: 700, Currency: "KES",
	}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), "exp-1", nil, "Wanjiru", "w@example.com", "+254700000000",
			"2026-04-02", 2, 0, "standard", int64(3500), int64(7000), int64(500), int64(7500),
			int64(6800), int64(700), "KES", "pending", "pending", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id = \\?").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			"bk-1", "exp-1", nil, "Wanjiru", "w@example.com", "+254700000000",
			"2026-04-02", 2, 0, "standard", 3500, 7000, 500, 7500, 6800, 700, "KES", "pending", "pending", nil,
			nil, now, now))

	require.NoError(t, NewBookingRepo(db).Create(context.Background(), b))
	assert.Equal(t, "bk-1", b.ID)
	assert.Nil(t, b.UserID)
	assert.Equal(t, model.PaymentStatusPending, b.PaymentStatus)
	assert.Equal(t, now, b.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_CreateWithUser(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	uid := uint64(42)
	notes := "vegetarian lunch"
	b := &model.Booking{ID: "bk-2", ExperienceID: "exp-1", UserID: &uid, BookingDate: "2026-04-02", Adults: 1, SpecialRequests: &notes}

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs("bk-2", "exp-1", uint64(42), "", "", "", "2026-04-02", 1, 0, "", int64(0), int64(0), int64(0), int64(0),
			int64(0), int64(0), "", "pending", "pending", "vegetarian lunch").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM bookings").
		WithArgs("bk-2").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			"bk-2", "exp-1", 42, "", "", "", "2026-04-02", 1, 0, "", 0, 0, 0, 0, 0, 0, "", "pending", "pending", nil,
			"vegetarian lunch", now, now))

	require.NoError(t, NewBookingRepo(db).Create(context.Background(), b))
	require.NotNil(t, b.UserID)
	assert.Equal(t, uint64(42), *b.UserID)
	require.NotNil(t, b.SpecialRequests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := NewBookingRepo(db).Create(context.Background(), &model.Booking{ID: "bk-1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBookingRepo_CreatePropagatesDriverError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(errors.New("connection reset"))

	err := NewBookingRepo(db).Create(context.Background(), &model.Booking{})
	assert.EqualError(t, err, "connection reset")
}

func TestBookingRepo_GetByIDMiss(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT .+ FROM bookings").WithArgs("nope").WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := NewBookingRepo(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingRepo_UpdatePaymentStatus(t *testing.T) {
	db, mock := newMock(t)
	ref := "PX-991"
	mock.ExpectExec("UPDATE bookings SET payment_status").
		WithArgs("completed", "confirmed", "PX-991", "bk-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET payment_status").
		WithArgs("failed", "cancelled", nil, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewBookingRepo(db)
	require.NoError(t, repo.UpdatePaymentStatus(context.Background(), "bk-1", "completed", "confirmed", &ref))
	err := repo.UpdatePaymentStatus(context.Background(), "missing", "failed", "cancelled", nil)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
