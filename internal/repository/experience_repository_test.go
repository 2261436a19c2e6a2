package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var experienceCols = []string{"id", "partner_id", "slug", "title", "price_adult", "premium_price_adult", "currency",
	"child_half_price", "is_group_pricing", "capacity", "is_active", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestExperienceRepo_GetBySlug(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM experiences WHERE slug = \\?").
		WithArgs("rhino-walk").
		WillReturnRows(sqlmock.NewRows(experienceCols).
			AddRow("exp-1", "ptn-1", "rhino-walk", "Rhino tracking walk", 3500, nil, "KES", true, false, 8, true, now, now))

	e, err := NewExperienceRepo(db).GetBySlug(context.Background(), "  Rhino-Walk ")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", e.ID)
	assert.Equal(t, int64(3500), e.PriceAdult)
	assert.Equal(t, int64(0), e.PremiumPriceAdult)
	assert.True(t, e.ChildHalfPriceRule)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExperienceRepo_GetBySlugMiss(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT .+ FROM experiences").
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(experienceCols))

	_, err := NewExperienceRepo(db).GetBySlug(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrExperienceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
