package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type gigRepository interface {
	List(ctx context.Context, filter models.GigFilter, limit int) ([]models.Gig, error)
	FindByID(ctx context.Context, id string) (*models.Gig, error)
	Create(ctx context.Context, gig *models.Gig) error
	Update(ctx context.Context, id string, patch models.UpdateGigRequest) error
}

// GigService owns the marketplace catalog rules.
type GigService struct {
	repo        gigRepository
	cache       *CacheService
	maxPageSize int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGigService constructs a GigService.
func NewGigService(repo gigRepository, cache *CacheService, maxPageSize int, validate *validator.Validate, logger *zap.Logger) *GigService {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GigService{repo: repo, cache: cache, maxPageSize: maxPageSize, validator: validate, logger: logger}
}

// List returns gigs matching the filter, newest first, plus whether the
// result came from cache. Retrieval is capped at the server-side page size;
// caller pagination is applied after retrieval.
func (s *GigService) List(ctx context.Context, filter models.GigFilter) ([]models.Gig, *models.Pagination, bool, error) {
	var gigs []models.Gig
	cacheKey := gigCacheKey(filter)
	hit, err := s.cache.Get(ctx, cacheKey, &gigs)
	if err != nil {
		s.logger.Warn("gig cache read failed", zap.Error(err))
	}
	if !hit {
		gigs, err = s.repo.List(ctx, filter, s.maxPageSize)
		if err != nil {
			return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gigs")
		}
		if err := s.cache.Set(ctx, cacheKey, gigs, 0); err != nil {
			s.logger.Warn("gig cache write failed", zap.Error(err))
		}
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	total := len(gigs)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return gigs[start:end], pagination, hit, nil
}

// Get returns a single gig by id.
func (s *GigService) Get(ctx context.Context, id string) (*models.Gig, error) {
	gig, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gig not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gig")
	}
	return gig, nil
}

// Create inserts a gig with marketplace defaults applied.
func (s *GigService) Create(ctx context.Context, ownerID string, req models.CreateGigRequest) (*models.Gig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gig payload")
	}

	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	attachments := req.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	gig := &models.Gig{
		OwnerID:          ownerID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Price:            req.Price,
		Currency:         currency,
		DeliveryTimeDays: req.DeliveryTimeDays,
		Attachments:      attachments,
		Tags:             tags,
		Status:           models.GigStatusActive,
	}
	if err := s.repo.Create(ctx, gig); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create gig")
	}
	s.invalidateListings(ctx)
	return gig, nil
}

// Update applies a partial patch; only the gig owner or an admin may update.
func (s *GigService) Update(ctx context.Context, gigID string, caller *models.JWTClaims, patch models.UpdateGigRequest) (*models.Gig, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gig patch")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown gig status")
	}

	gig, err := s.repo.FindByID(ctx, gigID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gig not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gig")
	}
	if caller == nil || (caller.UserID != gig.OwnerID && !caller.IsAdmin()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the gig owner or an admin may update a gig")
	}

	if err := s.repo.Update(ctx, gigID, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update gig")
	}

	updated, err := s.repo.FindByID(ctx, gigID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload gig")
	}
	s.invalidateListings(ctx)
	return updated, nil
}

func (s *GigService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "gigs:*"); err != nil {
		s.logger.Warn("gig cache invalidation failed", zap.Error(err))
	}
}

func gigCacheKey(filter models.GigFilter) string {
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	minPrice := ""
	if filter.MinPrice != nil {
		minPrice = fmt.Sprintf("%.2f", *filter.MinPrice)
	}
	maxPrice := ""
	if filter.MaxPrice != nil {
		maxPrice = fmt.Sprintf("%.2f", *filter.MaxPrice)
	}
	return fmt.Sprintf("gigs:%s:%s:%s:%s:%s:%s", filter.Category, status, filter.OwnerID, minPrice, maxPrice, filter.Search)
}
