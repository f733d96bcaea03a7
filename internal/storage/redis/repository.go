package redis

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/rs/zerolog"
	"time"
)

var _ repo.SendRecordRepository = (*CachedRecordRepository)(nil)

const defaultCacheTTL = 24 * time.Hour

// CachedRecordRepository decorates the primary history with a cache-aside read path.
// Records are immutable once saved, so nothing ever needs invalidating.
type CachedRecordRepository struct {
	primaryRepo repo.SendRecordRepository
	cache       repo.SendRecordCache
	logger      zerolog.Logger
	ttl         time.Duration
}

func NewCachedRecordRepository(
	primaryRepo repo.SendRecordRepository,
	cache repo.SendRecordCache,
	ttl time.Duration,
	logger *zerolog.Logger,
) *CachedRecordRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedRecordRepository{
		primaryRepo: primaryRepo,
		cache:       cache,
		logger:      logger.With().Str("layer", "cached_repository").Logger(),
		ttl:         ttl,
	}
}

// Save persists to the primary repository, then warms the cache.
func (r *CachedRecordRepository) Save(ctx context.Context, rec *model.SendRecord) error {
	if err := r.primaryRepo.Save(ctx, rec); err != nil {
		return err
	}
	if err := r.cache.Set(ctx, rec, r.ttl); err != nil {
		r.logger.Error().Err(err).Stringer("id", rec.ID).Msg("failed to cache record after save")
	}
	return nil
}

func (r *CachedRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SendRecord, error) {
	cached, err := r.cache.Get(ctx, id)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		r.logger.Error().Err(err).Stringer("id", id).Msg("cache get error, falling back to primary repository")
	}

	primary, err := r.primaryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, primary, r.ttl); err != nil {
		r.logger.Error().Err(err).Stringer("id", id).Msg("failed to set cache after db fetch")
	}
	return primary, nil
}

// ListByJob always reads the primary repository.
func (r *CachedRecordRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*model.SendRecord, error) {
	return r.primaryRepo.ListByJob(ctx, jobID)
}
