package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

// ProfileRepo reads and writes traveler contact profiles.
type ProfileRepo struct{ db *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

// GetByUserID returns the user's profile or ErrProfileNotFound.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Profile, error) {
	var p model.Profile
	var first, last, email, phone sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, first_name, last_name, email, phone, updated_at FROM profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&p.UserID, &first, &last, &email, &phone, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.FirstName, p.LastName, p.Email, p.Phone = first.String, last.String, email.String, phone.String
	return &p, nil
}

// Upsert creates or replaces the user's profile.
func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, first_name, last_name, email, phone) VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE first_name=VALUES(first_name), last_name=VALUES(last_name),
		 email=VALUES(email), phone=VALUES(phone), updated_at=NOW()`,
		p.UserID, p.FirstName, p.LastName, p.Email, p.Phone)
	return err
}
