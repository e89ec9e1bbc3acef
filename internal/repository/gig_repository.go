package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campuslink-ng/campus-api/internal/models"
	"github.com/campuslink-ng/campus-api/pkg/database"
)

// GigRepository manages persistence for marketplace gigs. Read paths are
// retried on connection-class failures per the configured backoff.
type GigRepository struct {
	db    *sqlx.DB
	retry database.RetryConfig
}

// NewGigRepository constructs a GigRepository.
func NewGigRepository(db *sqlx.DB, retry database.RetryConfig) *GigRepository {
	return &GigRepository{db: db, retry: retry}
}

const gigColumns = `id, owner_id, title, description, category, price, currency, delivery_time_days, attachments, tags, status, created_at, updated_at`

// List returns gigs matching the filter, newest first, capped at limit.
func (r *GigRepository) List(ctx context.Context, filter models.GigFilter, limit int) ([]models.Gig, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)+1))
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)+1))
		args = append(args, *filter.MaxPrice)
	}
	if filter.Search != "" {
		// Tags hold no wildcards, so ILIKE ANY is a case-insensitive exact match.
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d OR $%d ILIKE ANY(tags))",
			len(args)+1, len(args)+1, len(args)+2))
		args = append(args, pattern, filter.Search)
	}

	query := fmt.Sprintf("SELECT %s FROM gigs WHERE %s ORDER BY created_at DESC LIMIT %d",
		gigColumns, strings.Join(conditions, " AND "), limit)

	var gigs []models.Gig
	err := database.WithRetry(ctx, r.retry, func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &gigs, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	return gigs, nil
}

// FindByID returns the gig with the given id.
func (r *GigRepository) FindByID(ctx context.Context, id string) (*models.Gig, error) {
	query := fmt.Sprintf("SELECT %s FROM gigs WHERE id = $1", gigColumns)
	var gig models.Gig
	err := database.WithRetry(ctx, r.retry, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &gig, query, id)
	})
	if err != nil {
		return nil, err
	}
	return &gig, nil
}

// Create inserts a new gig.
func (r *GigRepository) Create(ctx context.Context, gig *models.Gig) error {
	if gig.ID == "" {
		gig.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if gig.CreatedAt.IsZero() {
		gig.CreatedAt = now
	}
	gig.UpdatedAt = gig.CreatedAt
	const query = `INSERT INTO gigs (id, owner_id, title, description, category, price, currency, delivery_time_days, attachments, tags, status, created_at, updated_at)
		VALUES (:id, :owner_id, :title, :description, :category, :price, :currency, :delivery_time_days, :attachments, :tags, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, gig); err != nil {
		return fmt.Errorf("create gig: %w", err)
	}
	return nil
}

// Update applies only the fields present in the patch and refreshes updated_at.
func (r *GigRepository) Update(ctx context.Context, id string, patch models.UpdateGigRequest) error {
	sets := []string{}
	args := []interface{}{}

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Currency != nil {
		add("currency", *patch.Currency)
	}
	if patch.DeliveryTimeDays != nil {
		add("delivery_time_days", *patch.DeliveryTimeDays)
	}
	if patch.Attachments != nil {
		add("attachments", pq.StringArray(*patch.Attachments))
	}
	if patch.Tags != nil {
		add("tags", pq.StringArray(*patch.Tags))
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}

	add("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE gigs SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)+1)
	args = append(args, id)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update gig: %w", err)
	}
	return nil
}
