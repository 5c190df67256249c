package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Pruner removes expired cache entries.
type Pruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// CachePruneJob deletes expired series cache entries.
type CachePruneJob struct {
	pruner  Pruner
	timeout time.Duration
	log     zerolog.Logger
}

// NewCachePruneJob creates a new cache prune job. Each run is bounded by timeout.
func NewCachePruneJob(pruner Pruner, timeout time.Duration, log zerolog.Logger) *CachePruneJob {
	return &CachePruneJob{
		pruner:  pruner,
		timeout: timeout,
		log:     log.With().Str("job", "cache_prune").Logger(),
	}
}

// Name returns the job name
func (j *CachePruneJob) Name() string {
	return "cache_prune"
}

// Run executes the prune
func (j *CachePruneJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	removed, err := j.pruner.PruneExpired(ctx)
	if err != nil {
		return err
	}
	j.log.Debug().Int64("removed", removed).Msg("Cache prune completed")
	return nil
}
