package service

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type mockPoolRepo struct {
	entries map[string]*models.IdentifierPoolEntry
}

func newMockPoolRepo() *mockPoolRepo {
	return &mockPoolRepo{entries: make(map[string]*models.IdentifierPoolEntry)}
}

func (m *mockPoolRepo) Count(ctx context.Context, poolType models.PoolType) (int, error) {
	count := 0
	for _, e := range m.entries {
		if e.PoolType == poolType {
			count++
		}
	}
	return count, nil
}

func (m *mockPoolRepo) CountAvailable(ctx context.Context, poolType models.PoolType) (int, error) {
	count := 0
	for _, e := range m.entries {
		if e.PoolType == poolType && !e.IsUsed {
			count++
		}
	}
	return count, nil
}

func (m *mockPoolRepo) ListAvailable(ctx context.Context, poolType models.PoolType) ([]models.IdentifierPoolEntry, error) {
	var out []models.IdentifierPoolEntry
	for _, e := range m.entries {
		if e.PoolType == poolType && !e.IsUsed {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

func (m *mockPoolRepo) ListValues(ctx context.Context, poolType models.PoolType) ([]string, error) {
	var out []string
	for _, e := range m.entries {
		if e.PoolType == poolType {
			out = append(out, e.Value)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockPoolRepo) Insert(ctx context.Context, entry *models.IdentifierPoolEntry) error {
	cp := *entry
	m.entries[string(entry.PoolType)+"/"+entry.Value] = &cp
	return nil
}

func (m *mockPoolRepo) MarkUsed(ctx context.Context, poolType models.PoolType, value, usedBy string) (bool, error) {
	entry, ok := m.entries[string(poolType)+"/"+value]
	if !ok || entry.IsUsed {
		return false, nil
	}
	entry.IsUsed = true
	entry.UsedBy = &usedBy
	return true, nil
}

func (m *mockPoolRepo) Wipe(ctx context.Context, poolType models.PoolType) (int, error) {
	removed := 0
	for key, e := range m.entries {
		if e.PoolType == poolType {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

func TestPoolServiceInitialize(t *testing.T) {
	repo := newMockPoolRepo()
	svc := NewPoolService(repo, nil, zap.NewNop())

	result, err := svc.Initialize(context.Background(), models.PoolRegistration, models.InitializePoolRequest{
		Prefix:      "CMS/2025/",
		StartNumber: 1,
		Count:       3,
	})
	require.NoError(t, err)
	assert.True(t, result.Initialized)
	assert.Equal(t, 3, result.Count)

	entries, err := svc.ListAvailable(context.Background(), models.PoolRegistration)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "CMS/2025/0000001", entries[0].Value)
	assert.Equal(t, "CMS/2025/0000002", entries[1].Value)
	assert.Equal(t, "CMS/2025/0000003", entries[2].Value)
}

func TestPoolServiceInitializeIsIdempotent(t *testing.T) {
	repo := newMockPoolRepo()
	svc := NewPoolService(repo, nil, zap.NewNop())

	first, err := svc.Initialize(context.Background(), models.PoolStaff, models.InitializePoolRequest{
		Prefix: "STF/", StartNumber: 1, Count: 5,
	})
	require.NoError(t, err)
	require.True(t, first.Initialized)

	second, err := svc.Initialize(context.Background(), models.PoolStaff, models.InitializePoolRequest{
		Prefix: "STF/", StartNumber: 100, Count: 50,
	})
	require.NoError(t, err)
	assert.False(t, second.Initialized)
	assert.Equal(t, 5, second.Count)

	count, err := svc.AvailableCount(context.Background(), models.PoolStaff)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestPoolServiceInitializeRejectsUnknownPool(t *testing.T) {
	svc := NewPoolService(newMockPoolRepo(), nil, zap.NewNop())

	_, err := svc.Initialize(context.Background(), models.PoolType("LOCKER"), models.InitializePoolRequest{
		Prefix: "L/", Count: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPoolServiceMarkUsed(t *testing.T) {
	repo := newMockPoolRepo()
	svc := NewPoolService(repo, nil, zap.NewNop())

	_, err := svc.Initialize(context.Background(), models.PoolRegistration, models.InitializePoolRequest{
		Prefix: "CMS/2025/", StartNumber: 1, Count: 3,
	})
	require.NoError(t, err)

	claimed, err := svc.MarkUsed(context.Background(), models.PoolRegistration, models.MarkUsedRequest{
		Value: "CMS/2025/0000002", UsedBy: "student-1",
	})
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claim of the same value and a claim of a missing value both
	// report false; the caller cannot tell the cases apart.
	claimed, err = svc.MarkUsed(context.Background(), models.PoolRegistration, models.MarkUsedRequest{
		Value: "CMS/2025/0000002", UsedBy: "student-2",
	})
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = svc.MarkUsed(context.Background(), models.PoolRegistration, models.MarkUsedRequest{
		Value: "CMS/2025/9999999", UsedBy: "student-2",
	})
	require.NoError(t, err)
	assert.False(t, claimed)

	entries, err := svc.ListAvailable(context.Background(), models.PoolRegistration)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "CMS/2025/0000001", entries[0].Value)
	assert.Equal(t, "CMS/2025/0000003", entries[1].Value)
}

func TestPoolServiceAutoGenerateSkipsAboveThreshold(t *testing.T) {
	repo := newMockPoolRepo()
	svc := NewPoolService(repo, nil, zap.NewNop())

	_, err := svc.Initialize(context.Background(), models.PoolRegistration, models.InitializePoolRequest{
		Prefix: "CMS/2025/", StartNumber: 1, Count: 10,
	})
	require.NoError(t, err)

	strategy, err := svc.StrategyFor(context.Background(), models.PoolRegistration, "sequential", "CMS/2025/", 0)
	require.NoError(t, err)

	result, err := svc.AutoGenerate(context.Background(), models.PoolRegistration, 5, 20, strategy)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, 0, result.Generated)
}

func TestPoolServiceAutoGenerateSequentialContinuesFromMax(t *testing.T) {
	repo := newMockPoolRepo()
	svc := NewPoolService(repo, nil, zap.NewNop())

	_, err := svc.Initialize(context.Background(), models.PoolRegistration, models.InitializePoolRequest{
		Prefix: "CMS/2025/", StartNumber: 1, Count: 3,
	})
	require.NoError(t, err)

	// Drain the pool below the threshold.
	for _, value := range []string{"CMS/2025/0000001", "CMS/2025/0000002", "CMS/2025/0000003"} {
		claimed, err := svc.MarkUsed(context.Background(), models.PoolRegistration, models.MarkUsedRequest{
			Value: value, UsedBy: "student",
		})
		require.NoError(t, err)
		require.True(t, claimed)
	}

	strategy, err := svc.StrategyFor(context.Background(), models.PoolRegistration, "sequential", "CMS/2025/", 0)
	require.NoError(t, err)

	result, err := svc.AutoGenerate(context.Background(), models.PoolRegistration, 2, 4, strategy)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 4, result.Generated)

	entries, err := svc.ListAvailable(context.Background(), models.PoolRegistration)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "CMS/2025/0000004", entries[0].Value)
	assert.Equal(t, "CMS/2025/0000007", entries[3].Value)
}

func TestPoolServiceAutoGenerateRandomAvoidsDuplicates(t *testing.T) {
	repo := newMockPoolRepo()
	svc := NewPoolService(repo, nil, zap.NewNop())

	_, err := svc.Initialize(context.Background(), models.PoolStaff, models.InitializePoolRequest{
		Prefix: "STF/", StartNumber: 1, Count: 2,
	})
	require.NoError(t, err)

	result, err := svc.AutoGenerate(context.Background(), models.PoolStaff, 10, 25, &RandomStrategy{
		Prefix: "STF/", MaxAttempts: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, result.Generated)

	values, err := repo.ListValues(context.Background(), models.PoolStaff)
	require.NoError(t, err)
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		_, dup := seen[v]
		require.False(t, dup, "duplicate value %s", v)
		seen[v] = struct{}{}
	}
	assert.Len(t, values, 27)
}

func TestPoolServiceReset(t *testing.T) {
	repo := newMockPoolRepo()
	svc := NewPoolService(repo, nil, zap.NewNop())

	_, err := svc.Initialize(context.Background(), models.PoolRegistration, models.InitializePoolRequest{
		Prefix: "CMS/2024/", StartNumber: 1, Count: 5,
	})
	require.NoError(t, err)

	result, err := svc.Reset(context.Background(), models.PoolRegistration, models.InitializePoolRequest{
		Prefix: "CMS/2025/", StartNumber: 1, Count: 2,
	})
	require.NoError(t, err)
	assert.True(t, result.Initialized)
	assert.Equal(t, 2, result.Count)

	entries, err := svc.ListAvailable(context.Background(), models.PoolRegistration)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "CMS/2025/0000001", entries[0].Value)
}

func TestSequentialStrategySeedsFromExistingSuffixes(t *testing.T) {
	strategy := NewSequentialStrategy("CMS/2025/", []string{
		"CMS/2025/0000001",
		"CMS/2025/0000017",
		"CMS/2025/0000004",
	})

	value, err := strategy.Next(nil)
	require.NoError(t, err)
	assert.Equal(t, "CMS/2025/0000018", value)

	value, err = strategy.Next(nil)
	require.NoError(t, err)
	assert.Equal(t, "CMS/2025/0000019", value)
}

func TestRandomStrategyProducesPrefixedValues(t *testing.T) {
	strategy := &RandomStrategy{Prefix: "X/", MaxAttempts: 3}

	value, err := strategy.Next(map[string]struct{}{})
	require.NoError(t, err)
	assert.Regexp(t, `^X/\d{7}$`, value)
}
