package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslink-ng/campus-api/internal/models"
)

// PoolRepository persists identifier pool entries. Uniqueness is enforced by
// a (pool_type, value) unique constraint at the storage layer.
type PoolRepository struct {
	db *sqlx.DB
}

// NewPoolRepository constructs a PoolRepository.
func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

// Count returns the total number of entries in the pool.
func (r *PoolRepository) Count(ctx context.Context, poolType models.PoolType) (int, error) {
	const query = `SELECT COUNT(*) FROM identifier_pool WHERE pool_type = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, poolType); err != nil {
		return 0, fmt.Errorf("count pool entries: %w", err)
	}
	return count, nil
}

// CountAvailable returns the number of unused entries in the pool.
func (r *PoolRepository) CountAvailable(ctx context.Context, poolType models.PoolType) (int, error) {
	const query = `SELECT COUNT(*) FROM identifier_pool WHERE pool_type = $1 AND is_used = false`
	var count int
	if err := r.db.GetContext(ctx, &count, query, poolType); err != nil {
		return 0, fmt.Errorf("count available pool entries: %w", err)
	}
	return count, nil
}

// ListAvailable returns unused entries ordered by value ascending.
func (r *PoolRepository) ListAvailable(ctx context.Context, poolType models.PoolType) ([]models.IdentifierPoolEntry, error) {
	const query = `SELECT id, pool_type, value, is_used, used_by, used_at
		FROM identifier_pool WHERE pool_type = $1 AND is_used = false ORDER BY value ASC`
	var entries []models.IdentifierPoolEntry
	if err := r.db.SelectContext(ctx, &entries, query, poolType); err != nil {
		return nil, fmt.Errorf("list available pool entries: %w", err)
	}
	return entries, nil
}

// ListValues returns every value in the pool, used or not.
func (r *PoolRepository) ListValues(ctx context.Context, poolType models.PoolType) ([]string, error) {
	const query = `SELECT value FROM identifier_pool WHERE pool_type = $1 ORDER BY value ASC`
	var values []string
	if err := r.db.SelectContext(ctx, &values, query, poolType); err != nil {
		return nil, fmt.Errorf("list pool values: %w", err)
	}
	return values, nil
}

// Insert adds a single unused entry.
func (r *PoolRepository) Insert(ctx context.Context, entry *models.IdentifierPoolEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const query = `INSERT INTO identifier_pool (id, pool_type, value, is_used, used_by, used_at)
		VALUES (:id, :pool_type, :value, :is_used, :used_by, :used_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert pool entry: %w", err)
	}
	return nil
}

// MarkUsed is a conditional single-row update: it succeeds only when the value
// exists and is still unused at update time. This atomic conditional write is
// the pool's sole concurrency defense against double allocation.
func (r *PoolRepository) MarkUsed(ctx context.Context, poolType models.PoolType, value, usedBy string) (bool, error) {
	const query = `UPDATE identifier_pool SET is_used = true, used_by = $3, used_at = $4
		WHERE pool_type = $1 AND value = $2 AND is_used = false`
	result, err := r.db.ExecContext(ctx, query, poolType, value, usedBy, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark pool entry used: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check marked pool rows: %w", err)
	}
	return affected > 0, nil
}

// Wipe removes every entry in the pool; used only by the explicit reset path.
func (r *PoolRepository) Wipe(ctx context.Context, poolType models.PoolType) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM identifier_pool WHERE pool_type = $1`, poolType)
	if err != nil {
		return 0, fmt.Errorf("wipe pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check wiped pool rows: %w", err)
	}
	return int(affected), nil
}
