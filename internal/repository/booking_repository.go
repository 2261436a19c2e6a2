package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

// BookingRepo persists booking records.  The booking core only ever
// inserts; payment status transitions come from the payment callback.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, experience_id, user_id, customer_name, customer_email, customer_phone,
	booking_date, adults, children, option_id, unit_price, subtotal, donation_amount, total,
	partner_amount, platform_amount, currency, status, payment_status, payment_ref,
	special_requests, created_at, updated_at`

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var userID sql.NullInt64
	var ref, special sql.NullString
	var opt string
	err := row.Scan(&b.ID, &b.ExperienceID, &userID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.BookingDate, &b.Adults, &b.Children, &opt, &b.UnitPrice, &b.Subtotal, &b.DonationAmount, &b.Total,
		&b.PartnerAmount, &b.PlatformAmount, &b.Currency, &b.Status, &b.PaymentStatus, &ref,
		&special, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.OptionID = model.OptionID(opt)
	if userID.Valid {
		uid := uint64(userID.Int64)
		b.UserID = &uid
	}
	if ref.Valid {
		s := ref.String
		b.PaymentRef = &s
	}
	if special.Valid {
		s := special.String
		b.SpecialRequests = &s
	}
	return &b, nil
}

// Create inserts a booking and reloads it so defaults and timestamps are
// populated on b.  An empty ID is replaced by a new UUID.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = model.BookingStatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = model.PaymentStatusPending
	}
	var userID any
	if b.UserID != nil {
		userID = *b.UserID
	}
	var special any
	if b.SpecialRequests != nil && *b.SpecialRequests != "" {
		special = *b.SpecialRequests
	}
	const q = `INSERT INTO bookings (id, experience_id, user_id, customer_name, customer_email, customer_phone,
		booking_date, adults, children, option_id, unit_price, subtotal, donation_amount, total,
		partner_amount, platform_amount, currency, status, payment_status, special_requests)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, b.ID, b.ExperienceID, userID, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.BookingDate, b.Adults, b.Children, string(b.OptionID), b.UnitPrice, b.Subtotal, b.DonationAmount, b.Total,
		b.PartnerAmount, b.PlatformAmount, b.Currency, b.Status, b.PaymentStatus, special)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	created, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

// GetByID returns a booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// UpdatePaymentStatus records the outcome reported by the payment gateway.
// A nil ref leaves the stored reference untouched.
func (r *BookingRepo) UpdatePaymentStatus(ctx context.Context, id, paymentStatus, status string, ref *string) error {
	var refArg any
	if ref != nil {
		refArg = *ref
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, status = ?, payment_ref = COALESCE(?, payment_ref), updated_at = NOW() WHERE id = ?`,
		paymentStatus, status, refArg, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
