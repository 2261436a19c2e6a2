package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/kijani-trails/conservation-booking/internal/model"
)

// ExperienceRepo reads experiences.  Rows are adapted into model.Experience
// at this boundary so the booking core never sees raw rows.
type ExperienceRepo struct {
	db *sql.DB
}

// NewExperienceRepo returns a new ExperienceRepo bound to the given database.
func NewExperienceRepo(db *sql.DB) *ExperienceRepo { return &ExperienceRepo{db: db} }

const experienceColumns = `id, partner_id, slug, title, price_adult, premium_price_adult, currency,
	child_half_price, is_group_pricing, capacity, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperience(row rowScanner) (*model.Experience, error) {
	var e model.Experience
	var premium sql.NullInt64
	err := row.Scan(&e.ID, &e.PartnerID, &e.Slug, &e.Title, &e.PriceAdult, &premium, &e.Currency,
		&e.ChildHalfPriceRule, &e.IsGroupPricing, &e.Capacity, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if premium.Valid {
		e.PremiumPriceAdult = premium.Int64
	}
	return &e, nil
}

// GetBySlug returns the experience with the given slug or
// ErrExperienceNotFound.
func (r *ExperienceRepo) GetBySlug(ctx context.Context, slug string) (*model.Experience, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	row := r.db.QueryRowContext(ctx, `SELECT `+experienceColumns+` FROM experiences WHERE slug = ? LIMIT 1`, slug)
	e, err := scanExperience(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExperienceNotFound
	}
	return e, err
}
