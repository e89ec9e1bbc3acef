package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type mockGigRepo struct {
	items     map[string]*models.Gig
	listCalls int
	patches   []models.UpdateGigRequest
}

func newMockGigRepo() *mockGigRepo {
	return &mockGigRepo{items: make(map[string]*models.Gig)}
}

func (m *mockGigRepo) List(ctx context.Context, filter models.GigFilter, limit int) ([]models.Gig, error) {
	m.listCalls++
	var out []models.Gig
	for _, g := range m.items {
		if filter.MinPrice != nil && g.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && g.Price > *filter.MaxPrice {
			continue
		}
		out = append(out, *g)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *mockGigRepo) FindByID(ctx context.Context, id string) (*models.Gig, error) {
	if gig, ok := m.items[id]; ok {
		cp := *gig
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGigRepo) Create(ctx context.Context, gig *models.Gig) error {
	if gig.ID == "" {
		gig.ID = fmt.Sprintf("gig-%d", len(m.items)+1)
	}
	cp := *gig
	m.items[gig.ID] = &cp
	return nil
}

func (m *mockGigRepo) Update(ctx context.Context, id string, patch models.UpdateGigRequest) error {
	m.patches = append(m.patches, patch)
	gig, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Title != nil {
		gig.Title = *patch.Title
	}
	if patch.Price != nil {
		gig.Price = *patch.Price
	}
	if patch.Status != nil {
		gig.Status = *patch.Status
	}
	return nil
}

func disabledCache() *CacheService {
	return NewCacheService(nil, nil, 0, nil, false)
}

func TestGigServiceCreateAppliesDefaults(t *testing.T) {
	repo := newMockGigRepo()
	svc := NewGigService(repo, disabledCache(), 100, nil, zap.NewNop())

	gig, err := svc.Create(context.Background(), "user-1", models.CreateGigRequest{
		Title:            "Logo design",
		Description:      "Clean vector logo",
		Category:         "design",
		Price:            5000,
		DeliveryTimeDays: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", gig.OwnerID)
	assert.Equal(t, models.DefaultCurrency, gig.Currency)
	assert.Equal(t, models.GigStatusActive, gig.Status)
	assert.NotNil(t, gig.Attachments)
	assert.Empty(t, gig.Attachments)
	assert.NotNil(t, gig.Tags)
	assert.Empty(t, gig.Tags)
}

func TestGigServiceCreateRejectsNegativePrice(t *testing.T) {
	svc := NewGigService(newMockGigRepo(), disabledCache(), 100, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "user-1", models.CreateGigRequest{
		Title:            "Broken",
		Description:      "Bad payload",
		Category:         "misc",
		Price:            -1,
		DeliveryTimeDays: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGigServiceGetNotFound(t *testing.T) {
	svc := NewGigService(newMockGigRepo(), disabledCache(), 100, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGigServiceListAppliesPriceRange(t *testing.T) {
	repo := newMockGigRepo()
	svc := NewGigService(repo, disabledCache(), 100, nil, zap.NewNop())

	for i, price := range []float64{1000, 5000, 20000} {
		_, err := svc.Create(context.Background(), "user-1", models.CreateGigRequest{
			Title:            fmt.Sprintf("Gig %d", i),
			Description:      "desc",
			Category:         "misc",
			Price:            price,
			DeliveryTimeDays: 1,
		})
		require.NoError(t, err)
	}

	minPrice, maxPrice := 2000.0, 10000.0
	gigs, pagination, cacheHit, err := svc.List(context.Background(), models.GigFilter{
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	})
	assert.False(t, cacheHit)
	require.NoError(t, err)
	require.Len(t, gigs, 1)
	assert.Equal(t, 5000.0, gigs[0].Price)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestGigServiceListPaginatesAfterRetrieval(t *testing.T) {
	repo := newMockGigRepo()
	svc := NewGigService(repo, disabledCache(), 100, nil, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := svc.Create(context.Background(), "user-1", models.CreateGigRequest{
			Title:            fmt.Sprintf("Gig %d", i),
			Description:      "desc",
			Category:         "misc",
			Price:            100,
			DeliveryTimeDays: 1,
		})
		require.NoError(t, err)
	}

	gigs, pagination, _, err := svc.List(context.Background(), models.GigFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, gigs, 2)
	assert.Equal(t, 5, pagination.TotalCount)
	assert.Equal(t, 2, pagination.Page)

	gigs, _, _, err = svc.List(context.Background(), models.GigFilter{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, gigs)
}

func TestGigServiceUpdateOwnership(t *testing.T) {
	repo := newMockGigRepo()
	svc := NewGigService(repo, disabledCache(), 100, nil, zap.NewNop())

	gig, err := svc.Create(context.Background(), "owner-1", models.CreateGigRequest{
		Title:            "Original",
		Description:      "desc",
		Category:         "misc",
		Price:            100,
		DeliveryTimeDays: 1,
	})
	require.NoError(t, err)

	newTitle := "Renamed"

	_, err = svc.Update(context.Background(), gig.ID, &models.JWTClaims{UserID: "intruder", Role: models.RoleStudent}, models.UpdateGigRequest{Title: &newTitle})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), gig.ID, &models.JWTClaims{UserID: "owner-1", Role: models.RoleStudent}, models.UpdateGigRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	adminTitle := "Admin edit"
	updated, err = svc.Update(context.Background(), gig.ID, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, models.UpdateGigRequest{Title: &adminTitle})
	require.NoError(t, err)
	assert.Equal(t, "Admin edit", updated.Title)
}

func TestGigServiceUpdateNotFoundBeforeForbidden(t *testing.T) {
	svc := NewGigService(newMockGigRepo(), disabledCache(), 100, nil, zap.NewNop())

	title := "x"
	_, err := svc.Update(context.Background(), "missing", &models.JWTClaims{UserID: "anyone", Role: models.RoleStudent}, models.UpdateGigRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
