package repository

import "time"

// SetClock replaces the cache's time source.
func (r *SeriesCacheRepository) SetClock(now func() time.Time) {
	r.now = now
}
