package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuslink-ng/campus-api/internal/models"
)

func newPoolRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPoolRepositoryCountAvailable(t *testing.T) {
	db, mock, cleanup := newPoolRepoMock(t)
	defer cleanup()
	repo := NewPoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM identifier_pool WHERE pool_type = $1 AND is_used = false")).
		WithArgs(models.PoolRegistration).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountAvailable(context.Background(), models.PoolRegistration)
	require.NoError(t, err)
	require.Equal(t, 42, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRepositoryListAvailable(t *testing.T) {
	db, mock, cleanup := newPoolRepoMock(t)
	defer cleanup()
	repo := NewPoolRepository(db)

	rows := sqlmock.NewRows([]string{"id", "pool_type", "value", "is_used", "used_by", "used_at"}).
		AddRow("pe-1", models.PoolRegistration, "CMS/2025/0000001", false, nil, nil).
		AddRow("pe-2", models.PoolRegistration, "CMS/2025/0000002", false, nil, nil)
	mock.ExpectQuery("SELECT id, pool_type, value, is_used, used_by, used_at").
		WithArgs(models.PoolRegistration).
		WillReturnRows(rows)

	entries, err := repo.ListAvailable(context.Background(), models.PoolRegistration)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "CMS/2025/0000001", entries[0].Value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRepositoryMarkUsedConditional(t *testing.T) {
	db, mock, cleanup := newPoolRepoMock(t)
	defer cleanup()
	repo := NewPoolRepository(db)

	query := regexp.QuoteMeta("UPDATE identifier_pool SET is_used = true, used_by = $3, used_at = $4")

	mock.ExpectExec(query).
		WithArgs(models.PoolStaff, "STF/2025/0000007", "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	claimed, err := repo.MarkUsed(context.Background(), models.PoolStaff, "STF/2025/0000007", "admin-1")
	require.NoError(t, err)
	require.True(t, claimed)

	// Already-used value matches zero rows.
	mock.ExpectExec(query).
		WithArgs(models.PoolStaff, "STF/2025/0000007", "admin-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	claimed, err = repo.MarkUsed(context.Background(), models.PoolStaff, "STF/2025/0000007", "admin-2")
	require.NoError(t, err)
	require.False(t, claimed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolRepositoryWipe(t *testing.T) {
	db, mock, cleanup := newPoolRepoMock(t)
	defer cleanup()
	repo := NewPoolRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM identifier_pool WHERE pool_type = $1")).
		WithArgs(models.PoolRegistration).
		WillReturnResult(sqlmock.NewResult(0, 120))

	removed, err := repo.Wipe(context.Background(), models.PoolRegistration)
	require.NoError(t, err)
	require.Equal(t, 120, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}
