package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

// PartnerRepo reads conservation partners and their earnings.
type PartnerRepo struct{ db *sql.DB }

func NewPartnerRepo(db *sql.DB) *PartnerRepo { return &PartnerRepo{db: db} }

// PartnerEarnings aggregates a partner's bookings.  Paid amounts only count
// bookings whose payment completed; pending amounts are still awaiting the
// gateway.
type PartnerEarnings struct {
	PartnerID      string `json:"partner_id"`
	PaidBookings   int64  `json:"paid_bookings"`
	Gross          int64  `json:"gross"`
	PartnerAmount  int64  `json:"partner_amount"`
	PlatformAmount int64  `json:"platform_amount"`
	Donations      int64  `json:"donations"`
	PendingTotal   int64  `json:"pending_total"`
}

// GetByUserID returns the partner managed by the given user.
func (r *PartnerRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Partner, error) {
	var p model.Partner
	var project sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, project, created_at FROM partners WHERE user_id=? LIMIT 1",
		userID).Scan(&p.ID, &p.UserID, &p.Name, &project, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Project = project.String
	return &p, nil
}

// Earnings sums the partner's bookings across all of its experiences.
func (r *PartnerRepo) Earnings(ctx context.Context, partnerID string) (PartnerEarnings, error) {
	const q = `SELECT
		COALESCE(SUM(CASE WHEN b.payment_status = 'completed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN b.payment_status = 'completed' THEN b.total ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN b.payment_status = 'completed' THEN b.partner_amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN b.payment_status = 'completed' THEN b.platform_amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN b.payment_status = 'completed' THEN b.donation_amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN b.payment_status = 'pending' THEN b.total ELSE 0 END), 0)
		FROM bookings b JOIN experiences e ON e.id = b.experience_id
		WHERE e.partner_id = ?`
	out := PartnerEarnings{PartnerID: partnerID}
	err := r.db.QueryRowContext(ctx, q, partnerID).Scan(
		&out.PaidBookings, &out.Gross, &out.PartnerAmount, &out.PlatformAmount, &out.Donations, &out.PendingTotal)
	return out, err
}
