package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslink-ng/campus-api/internal/models"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
)

type poolRepository interface {
	Count(ctx context.Context, poolType models.PoolType) (int, error)
	CountAvailable(ctx context.Context, poolType models.PoolType) (int, error)
	ListAvailable(ctx context.Context, poolType models.PoolType) ([]models.IdentifierPoolEntry, error)
	ListValues(ctx context.Context, poolType models.PoolType) ([]string, error)
	Insert(ctx context.Context, entry *models.IdentifierPoolEntry) error
	MarkUsed(ctx context.Context, poolType models.PoolType, value, usedBy string) (bool, error)
	Wipe(ctx context.Context, poolType models.PoolType) (int, error)
}

// GenerateStrategy produces candidate identifier values for replenishment.
// Implementations receive the full existing-value set read once at the start
// of the run; the storage-layer unique constraint is the backstop against a
// concurrent generator.
type GenerateStrategy interface {
	Next(existing map[string]struct{}) (string, error)
}

const poolValueWidth = 7

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// SequentialStrategy continues the pool's numeric sequence from max+1.
type SequentialStrategy struct {
	Prefix string
	next   int
}

// NewSequentialStrategy seeds the continuation point from the existing values:
// the highest numeric suffix plus one.
func NewSequentialStrategy(prefix string, existing []string) *SequentialStrategy {
	maxSeen := 0
	for _, value := range existing {
		match := trailingDigits.FindString(value)
		if match == "" {
			continue
		}
		n, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		if n > maxSeen {
			maxSeen = n
		}
	}
	return &SequentialStrategy{Prefix: prefix, next: maxSeen + 1}
}

// Next returns the next sequential value.
func (s *SequentialStrategy) Next(_ map[string]struct{}) (string, error) {
	value := fmt.Sprintf("%s%0*d", s.Prefix, poolValueWidth, s.next)
	s.next++
	return value, nil
}

// RandomStrategy draws random numeric codes under a prefix, rejecting any
// candidate already present in the pool, bounded by MaxAttempts.
type RandomStrategy struct {
	Prefix      string
	MaxAttempts int
}

// Next returns a fresh random value or ErrPoolExhausted when the attempt cap
// is hit without finding one.
func (s *RandomStrategy) Next(existing map[string]struct{}) (string, error) {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = 1000
	}
	limit := big.NewInt(int64(pow10(poolValueWidth)))
	for i := 0; i < attempts; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("draw random code: %w", err)
		}
		value := fmt.Sprintf("%s%0*d", s.Prefix, poolValueWidth, n.Int64())
		if _, taken := existing[value]; !taken {
			return value, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrPoolExhausted, "random identifier space exhausted")
}

func pow10(n int) int {
	result := 1
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}

// PoolService manages pre-minted registration number and staff ID pools.
type PoolService struct {
	repo      poolRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPoolService constructs a PoolService.
func NewPoolService(repo poolRepository, validate *validator.Validate, logger *zap.Logger) *PoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolService{repo: repo, validator: validate, logger: logger}
}

// Initialize seeds the pool with count sequential zero-padded values. When the
// pool already holds entries it reports initialized=false and leaves it alone.
// Inserts are sequential and not wrapped in a transaction; a failure mid-batch
// leaves a partially populated pool.
func (s *PoolService) Initialize(ctx context.Context, poolType models.PoolType, req models.InitializePoolRequest) (*models.InitializePoolResult, error) {
	if !poolType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pool type")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pool initialization payload")
	}

	existing, err := s.repo.Count(ctx, poolType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pool entries")
	}
	if existing > 0 {
		return &models.InitializePoolResult{Initialized: false, Count: existing}, nil
	}

	for i := 0; i < req.Count; i++ {
		entry := &models.IdentifierPoolEntry{
			PoolType: poolType,
			Value:    fmt.Sprintf("%s%0*d", req.Prefix, poolValueWidth, req.StartNumber+i),
			IsUsed:   false,
		}
		if err := s.repo.Insert(ctx, entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed pool entry")
		}
	}

	s.logger.Info("identifier pool initialized",
		zap.String("pool", string(poolType)),
		zap.Int("count", req.Count),
	)
	return &models.InitializePoolResult{Initialized: true, Count: req.Count}, nil
}

// ListAvailable returns unused entries ordered by value ascending.
func (s *PoolService) ListAvailable(ctx context.Context, poolType models.PoolType) ([]models.IdentifierPoolEntry, error) {
	if !poolType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pool type")
	}
	entries, err := s.repo.ListAvailable(ctx, poolType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pool entries")
	}
	return entries, nil
}

// AvailableCount returns the number of unused entries.
func (s *PoolService) AvailableCount(ctx context.Context, poolType models.PoolType) (int, error) {
	if !poolType.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown pool type")
	}
	count, err := s.repo.CountAvailable(ctx, poolType)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pool entries")
	}
	return count, nil
}

// MarkUsed claims a specific identifier. It returns false when the value is
// missing or already claimed; callers cannot distinguish the two cases.
func (s *PoolService) MarkUsed(ctx context.Context, poolType models.PoolType, req models.MarkUsedRequest) (bool, error) {
	if !poolType.Valid() {
		return false, appErrors.Clone(appErrors.ErrValidation, "unknown pool type")
	}
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark-used payload")
	}
	claimed, err := s.repo.MarkUsed(ctx, poolType, req.Value, req.UsedBy)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark identifier used")
	}
	return claimed, nil
}

// AutoGenerate tops the pool up once the available count drops below
// threshold, producing exactly batchSize values when the strategy's space
// permits. The existing-value set is read once and held in memory for the run.
func (s *PoolService) AutoGenerate(ctx context.Context, poolType models.PoolType, threshold, batchSize int, strategy GenerateStrategy) (*models.AutoGenerateResult, error) {
	if !poolType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pool type")
	}
	if strategy == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "generation strategy required")
	}

	available, err := s.repo.CountAvailable(ctx, poolType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pool entries")
	}
	if available >= threshold {
		return &models.AutoGenerateResult{Generated: 0, Skipped: true, Available: available}, nil
	}

	values, err := s.repo.ListValues(ctx, poolType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read pool values")
	}
	existing := make(map[string]struct{}, len(values))
	for _, value := range values {
		existing[value] = struct{}{}
	}

	generated := 0
	for generated < batchSize {
		value, err := strategy.Next(existing)
		if err != nil {
			if generated > 0 {
				s.logger.Warn("pool replenishment stopped early",
					zap.String("pool", string(poolType)),
					zap.Int("generated", generated),
					zap.Error(err),
				)
				break
			}
			return nil, err
		}
		entry := &models.IdentifierPoolEntry{PoolType: poolType, Value: value, IsUsed: false}
		if err := s.repo.Insert(ctx, entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert generated entry")
		}
		existing[value] = struct{}{}
		generated++
	}

	s.logger.Info("identifier pool replenished",
		zap.String("pool", string(poolType)),
		zap.Int("generated", generated),
	)
	return &models.AutoGenerateResult{Generated: generated, Skipped: false, Available: available + generated}, nil
}

// StrategyFor resolves a named generation strategy for a pool. Sequential
// seeds its continuation point from the pool's current values.
func (s *PoolService) StrategyFor(ctx context.Context, poolType models.PoolType, name, prefix string, maxAttempts int) (GenerateStrategy, error) {
	switch name {
	case "", "sequential":
		values, err := s.repo.ListValues(ctx, poolType)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read pool values")
		}
		return NewSequentialStrategy(prefix, values), nil
	case "random":
		return &RandomStrategy{Prefix: prefix, MaxAttempts: maxAttempts}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown generation strategy")
	}
}

// Reset wipes the pool and reseeds it; the explicit migration path, never part
// of normal operation.
func (s *PoolService) Reset(ctx context.Context, poolType models.PoolType, req models.InitializePoolRequest) (*models.InitializePoolResult, error) {
	if !poolType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pool type")
	}
	wiped, err := s.repo.Wipe(ctx, poolType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to wipe pool")
	}
	s.logger.Info("identifier pool wiped",
		zap.String("pool", string(poolType)),
		zap.Int("removed", wiped),
	)
	return s.Initialize(ctx, poolType, req)
}
