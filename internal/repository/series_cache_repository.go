package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
)

// Series kinds stored in the cache.
const (
	KindPrice    = "price"
	KindDividend = "dividend"
)

// CacheKey identifies one fetched series. Symbols are case-insensitive.
type CacheKey struct {
	Symbol    string
	Kind      string
	StartDate time.Time
	EndDate   time.Time
}

// String renders the key as symbol|kind|start|end.
func (k CacheKey) String() string {
	return strings.Join([]string{
		strings.ToUpper(k.Symbol),
		k.Kind,
		formatDate(k.StartDate),
		formatDate(k.EndDate),
	}, "|")
}

// SeriesCacheRepository stores fetched market-data series as msgpack blobs
// with an expiry time.
type SeriesCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSeriesCacheRepository(db *sql.DB) *SeriesCacheRepository {
	return &SeriesCacheRepository{db: db, now: time.Now}
}

// Get decodes the cached value for key into dst.
// Returns apperrors.ErrCacheMiss when the key is absent or expired.
func (r *SeriesCacheRepository) Get(ctx context.Context, key CacheKey, dst any) error {
	query := `
		SELECT payload
		FROM series_cache
		WHERE cache_key = ? AND expires_at > ?
	`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, key.String(), formatTimestamp(r.now())).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to query series_cache: %w", err)
	}

	if err := msgpack.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode cached series %s: %w", key, err)
	}
	return nil
}

// Put stores value under key, replacing any previous entry, valid for ttl.
func (r *SeriesCacheRepository) Put(ctx context.Context, key CacheKey, value any, ttl time.Duration) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode series %s: %w", key, err)
	}

	now := r.now()
	query := `
		INSERT INTO series_cache (id, cache_key, symbol, kind, start_date, end_date, payload, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at,
			expires_at = excluded.expires_at
	`

	_, err = r.db.ExecContext(ctx, query,
		uuid.New().String(),
		key.String(),
		strings.ToUpper(key.Symbol),
		key.Kind,
		formatDate(key.StartDate),
		formatDate(key.EndDate),
		payload,
		formatTimestamp(now),
		formatTimestamp(now.Add(ttl)),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert series_cache: %w", err)
	}
	return nil
}

// Invalidate removes every cached series for symbol and returns how many were removed.
func (r *SeriesCacheRepository) Invalidate(ctx context.Context, symbol string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM series_cache WHERE symbol = ?`, strings.ToUpper(symbol))
	if err != nil {
		return 0, fmt.Errorf("failed to delete from series_cache: %w", err)
	}
	return res.RowsAffected()
}

// PruneExpired removes entries whose expiry has passed.
func (r *SeriesCacheRepository) PruneExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM series_cache WHERE expires_at <= ?`, formatTimestamp(r.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to prune series_cache: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored entries, expired ones included.
func (r *SeriesCacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM series_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count series_cache: %w", err)
	}
	return n, nil
}
