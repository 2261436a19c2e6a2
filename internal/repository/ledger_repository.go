package repository

import (
	"context"
	"database/sql"
)

// LedgerRepo builds the public allocation ledger: how much paid booking
// money went to each conservation partner and how much the platform kept.
type LedgerRepo struct{ db *sql.DB }

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// LedgerEntry is one partner's line in the public ledger.
type LedgerEntry struct {
	PartnerID      string `json:"partner_id"`
	PartnerName    string `json:"partner_name"`
	Project        string `json:"project,omitempty"`
	Bookings       int64  `json:"bookings"`
	PartnerAmount  int64  `json:"partner_amount"`
	Donations      int64  `json:"donations"`
	PlatformAmount int64  `json:"platform_amount"`
}

// Summary lists completed-payment allocations per partner, largest first.
func (r *LedgerRepo) Summary(ctx context.Context) ([]LedgerEntry, error) {
	const q = `SELECT p.id, p.name, p.project, COUNT(b.id),
		COALESCE(SUM(b.partner_amount), 0), COALESCE(SUM(b.donation_amount), 0), COALESCE(SUM(b.platform_amount), 0)
		FROM partners p
		JOIN experiences e ON e.partner_id = p.id
		JOIN bookings b ON b.experience_id = e.id AND b.payment_status = 'completed'
		GROUP BY p.id, p.name, p.project
		ORDER BY 5 DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		var project sql.NullString
		if err := rows.Scan(&e.PartnerID, &e.PartnerName, &project, &e.Bookings, &e.PartnerAmount, &e.Donations, &e.PlatformAmount); err != nil {
			return nil, err
		}
		e.Project = project.String
		out = append(out, e)
	}
	return out, rows.Err()
}
