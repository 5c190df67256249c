package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/repository"
)

// CacheService maintains the series cache.
type CacheService struct {
	cacheRepo *repository.SeriesCacheRepository
	log       zerolog.Logger
}

// NewCacheService creates a new CacheService.
func NewCacheService(cacheRepo *repository.SeriesCacheRepository, log zerolog.Logger) *CacheService {
	return &CacheService{
		cacheRepo: cacheRepo,
		log:       log.With().Str("component", "cache").Logger(),
	}
}

// Invalidate drops every cached series for symbol so the next run refetches it.
func (s *CacheService) Invalidate(ctx context.Context, symbol string) (int64, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return 0, apperrors.ErrInvalidSymbol
	}
	removed, err := s.cacheRepo.Invalidate(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrFailedToInvalidateCache, err)
	}
	s.log.Info().Str("symbol", strings.ToUpper(symbol)).Int64("removed", removed).Msg("cache invalidated")
	return removed, nil
}

// PruneExpired deletes expired cache entries.
func (s *CacheService) PruneExpired(ctx context.Context) (int64, error) {
	removed, err := s.cacheRepo.PruneExpired(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired cache entries pruned")
	}
	return removed, nil
}
