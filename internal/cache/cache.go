// Package cache stores TMDB responses in a SQLite database so repeated
// browsing sessions do not hit the API for data that rarely changes.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/viper"
	_ "modernc.org/sqlite"
)

const (
	// DefaultCacheTTL is the time-to-live for details and videos (30 days).
	DefaultCacheTTL = 720 * time.Hour
	// DefaultListingTTL is the time-to-live for listing pages.
	DefaultListingTTL = time.Hour
	// NegativeCacheTTL is the TTL for empty responses, such as a movie
	// without any videos yet.
	NegativeCacheTTL = 24 * time.Hour
)

// FetchFunc represents a function that fetches data from an external source
type FetchFunc[T any] func() (T, error)

// CacheDB manages the SQLite database connection for caching
type CacheDB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

var (
	globalCache     *CacheDB
	globalCacheOnce sync.Once
)

// ResetGlobalCache closes the current global cache and resets the singleton
// so the next call to GetGlobalCache will create a new instance.
func ResetGlobalCache() error {
	if globalCache != nil {
		if err := globalCache.Close(); err != nil {
			return err
		}
	}
	globalCache = nil
	globalCacheOnce = sync.Once{}
	return nil
}

// GetGlobalCache returns the singleton cache database instance
func GetGlobalCache() (*CacheDB, error) {
	var initErr error
	globalCacheOnce.Do(func() {
		dbPath := viper.GetString("cache.dbfile")
		if dbPath == "" {
			dbPath = "./cache.db"
		}
		globalCache, initErr = NewCacheDB(dbPath)
		if initErr != nil {
			return
		}
		for _, schema := range AllCacheSchemas {
			if err := globalCache.CreateTable(schema); err != nil {
				initErr = fmt.Errorf("failed to create cache table: %w", err)
				return
			}
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	if globalCache == nil {
		return nil, errors.New("cache database unavailable")
	}
	return globalCache, nil
}

// NewCacheDB creates a new CacheDB instance and opens the database connection
func NewCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	return &CacheDB{
		db:   db,
		path: dbPath,
	}, nil
}

// Path returns the database file backing the cache.
func (c *CacheDB) Path() string {
	return c.path
}

// CreateTable creates a table using the provided schema
func (c *CacheDB) CreateTable(schema string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// TableTTL returns the configured time-to-live for a cache table. Listing
// pages use cache.listing_ttl, everything else cache.ttl.
func TableTTL(tableName string) time.Duration {
	key, fallback := "cache.ttl", DefaultCacheTTL
	if tableName == ListingTable {
		key, fallback = "cache.listing_ttl", DefaultListingTTL
	}

	raw := viper.GetString(key)
	if raw == "" {
		return fallback
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil || ttl <= 0 {
		slog.Warn("Invalid cache TTL, using default", "key", key, "ttl", raw, "error", err)
		return fallback
	}
	return ttl
}

// GetOrFetch retrieves data from cache or fetches it using the provided
// function. The boolean result reports a cache hit.
func GetOrFetch[T any](tableName, cacheKey string, fetchFunc FetchFunc[T]) (T, bool, error) {
	return getOrFetch(tableName, cacheKey, fetchFunc, nil, nil)
}

// GetOrFetchWithPolicy is GetOrFetch with control over whether a fetched
// value is stored. A nil shouldCache stores everything.
func GetOrFetchWithPolicy[T any](tableName, cacheKey string, fetchFunc FetchFunc[T], shouldCache func(T) bool) (T, bool, error) {
	return getOrFetch(tableName, cacheKey, fetchFunc, shouldCache, nil)
}

// GetOrFetchWithTTL is GetOrFetch with a per-entry TTL chosen after the
// fetch, typically to keep empty responses for a shorter time.
func GetOrFetchWithTTL[T any](tableName, cacheKey string, fetchFunc FetchFunc[T], ttlSelector func(T) time.Duration) (T, bool, error) {
	return getOrFetch(tableName, cacheKey, fetchFunc, nil, ttlSelector)
}

// SelectNegativeCacheTTL returns a TTL selector that keeps "not found"
// results for NegativeCacheTTL and everything else for the table default.
func SelectNegativeCacheTTL[T any](isNotFound func(T) bool) func(T) time.Duration {
	return func(result T) time.Duration {
		if isNotFound(result) {
			return NegativeCacheTTL
		}
		return 0
	}
}

func getOrFetch[T any](tableName, cacheKey string, fetchFunc FetchFunc[T], shouldCache func(T) bool, ttlSelector func(T) time.Duration) (T, bool, error) {
	var zero T

	cache, err := GetGlobalCache()
	if err != nil {
		slog.Warn("Failed to initialize cache, fetching directly", "error", err)
		data, fetchErr := fetchFunc()
		return data, false, fetchErr
	}

	cached, hit, err := cache.Get(tableName, cacheKey, TableTTL(tableName))
	if err != nil {
		slog.Warn("Cache lookup failed", "table", tableName, "key", cacheKey, "error", err)
	}
	if hit {
		var result T
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			slog.Debug("Cache hit", "table", tableName, "key", cacheKey)
			return result, true, nil
		}
		slog.Warn("Failed to unmarshal cached data, will refetch", "table", tableName, "key", cacheKey, "error", err)
	}

	slog.Debug("Cache miss, fetching data", "table", tableName, "key", cacheKey)
	data, err := fetchFunc()
	if err != nil {
		return zero, false, fmt.Errorf("failed to fetch data: %w", err)
	}

	if shouldCache != nil && !shouldCache(data) {
		slog.Debug("Skipping cache store per policy", "table", tableName, "key", cacheKey)
		return data, false, nil
	}

	var entryTTL time.Duration
	if ttlSelector != nil {
		entryTTL = ttlSelector(data)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Failed to marshal data for caching", "table", tableName, "key", cacheKey, "error", err)
		return data, false, nil
	}
	// A failed store only costs a refetch next time.
	if err := cache.Set(tableName, cacheKey, string(jsonData), entryTTL); err != nil {
		slog.Warn("Failed to cache data", "table", tableName, "key", cacheKey, "error", err)
	}

	return data, false, nil
}

// Get retrieves a cached value. ttl applies unless the entry was stored
// with its own TTL. The boolean reports whether a live entry was found.
func (c *CacheDB) Get(tableName, key string, ttl time.Duration) (string, bool, error) {
	if err := validateTableName(tableName); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT data, ttl_seconds, cached_at
		FROM %s
		WHERE cache_key = ?
	`, tableName)

	var (
		data       string
		ttlSeconds int64
		cachedAt   time.Time
	)
	err := c.db.QueryRow(query, key).Scan(&data, &ttlSeconds, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	age := time.Now().UTC().Sub(cachedAt)
	if age > ttl {
		slog.Debug("Cache expired", "table", tableName, "key", key, "age", age)
		return "", false, nil
	}

	return data, true, nil
}

// Set stores a value. A zero ttl means the table TTL applies on lookup.
func (c *CacheDB) Set(tableName, key, data string, ttl time.Duration) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (cache_key, data, ttl_seconds, cached_at)
		VALUES (?, ?, ?, ?)
	`, tableName)

	if _, err := c.db.Exec(query, key, data, int64(ttl/time.Second), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// InvalidateSource deletes all entries from the specified cache table and
// returns the number of rows deleted.
func (c *CacheDB) InvalidateSource(tableName string) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s", tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache table cleared", "table", tableName, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

// ClearExpired removes entries that Get would no longer return: entries
// older than ttl, and entries past their own TTL. It returns the number of
// rows deleted.
func (c *CacheDB) ClearExpired(tableName string, ttl time.Duration) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	result, err := c.db.Exec(fmt.Sprintf(`
		DELETE FROM %s
		WHERE ttl_seconds = 0 AND cached_at < ?
	`, tableName), now.Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}
	deleted, _ := result.RowsAffected()

	rows, err := c.db.Query(fmt.Sprintf(`
		SELECT cache_key, ttl_seconds, cached_at
		FROM %s
		WHERE ttl_seconds > 0
	`, tableName))
	if err != nil {
		return deleted, fmt.Errorf("failed to scan cache entries: %w", err)
	}
	var expired []string
	for rows.Next() {
		var (
			key        string
			ttlSeconds int64
			cachedAt   time.Time
		)
		if err := rows.Scan(&key, &ttlSeconds, &cachedAt); err != nil {
			rows.Close()
			return deleted, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		if now.Sub(cachedAt) > time.Duration(ttlSeconds)*time.Second {
			expired = append(expired, key)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan cache entries: %w", err)
	}

	for _, key := range expired {
		if _, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE cache_key = ?", tableName), key); err != nil {
			return deleted, fmt.Errorf("failed to clear expired cache: %w", err)
		}
		deleted++
	}

	if deleted > 0 {
		slog.Debug("Cleared expired cache entries", "table", tableName, "count", deleted)
	}
	return deleted, nil
}

func validateTableName(tableName string) error {
	if !ValidCacheTableNames[tableName] {
		return fmt.Errorf("invalid cache table name: %s", tableName)
	}
	return nil
}
