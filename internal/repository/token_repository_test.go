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

func tokenRepoAt(db *sql.DB, now time.Time) *TokenRepo {
	r := NewTokenRepo(db)
	r.now = func() time.Time { return now }
	return r
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := tokenRepoAt(db, now)
	const q = "SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=\\? LIMIT 1"
	cols := []string{"user_id", "expires_at", "revoked_at"}

	mock.ExpectQuery(q).WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(uint64(5), now.Add(time.Hour), nil))
	id, err := repo.ValidateRefresh(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)

	mock.ExpectQuery(q).WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(uint64(5), now.Add(-time.Minute), nil))
	_, err = repo.ValidateRefresh(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	mock.ExpectQuery(q).WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(uint64(5), now.Add(time.Hour), now.Add(-time.Hour)))
	_, err = repo.ValidateRefresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	mock.ExpectQuery(q).WithArgs("unknown").WillReturnError(sql.ErrNoRows)
	_, err = repo.ValidateRefresh(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_StoreAndRevoke(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	exp := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO refresh_tokens").WithArgs(uint64(5), "h1", exp).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE token_hash=\\?").WithArgs("h1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE user_id=\\?").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at < \\?").WithArgs(exp).
		WillReturnResult(sqlmock.NewResult(0, 7))

	ctx := context.Background()
	require.NoError(t, repo.StoreRefresh(ctx, 5, "h1", exp))
	require.NoError(t, repo.RevokeByHash(ctx, "h1"))
	require.NoError(t, repo.RevokeAllForUser(ctx, 5))
	n, err := repo.PurgeExpired(ctx, exp)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
