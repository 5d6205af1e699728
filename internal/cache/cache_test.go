package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lepinkainen/marquee/internal/testutil"
	"github.com/spf13/viper"
)

type TestData struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func setupTestCache(t *testing.T) *CacheDB {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	env := testutil.NewTestEnv(t)
	cache, err := NewCacheDB(env.Path("test_cache.db"))
	if err != nil {
		t.Fatalf("Failed to create cache database: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	for _, schema := range AllCacheSchemas {
		if err := cache.CreateTable(schema); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	viper.Set("cache.ttl", "1h")
	return cache
}

func withGlobalCache(t *testing.T, cache *CacheDB) {
	t.Helper()

	oldCache := globalCache
	globalCache = cache
	globalCacheOnce = sync.Once{}
	globalCacheOnce.Do(func() {})

	t.Cleanup(func() {
		globalCache = oldCache
		globalCacheOnce = sync.Once{}
	})
}

func setCachedAt(t *testing.T, cache *CacheDB, tableName, key string, at time.Time) {
	t.Helper()

	if _, err := cache.db.Exec("UPDATE "+tableName+" SET cached_at = ? WHERE cache_key = ?", at.UTC(), key); err != nil {
		t.Fatalf("Failed to update cached_at: %v", err)
	}
}

func TestGetOrFetch_CacheHit(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.Set(TMDBTable, "movie_1", `{"id":1,"name":"Test"}`, 0); err != nil {
		t.Fatalf("Failed to pre-populate cache: %v", err)
	}
	withGlobalCache(t, cache)

	fetchCalled := false
	result, fromCache, err := GetOrFetch(TMDBTable, "movie_1", func() (TestData, error) {
		fetchCalled = true
		return TestData{}, nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !fromCache {
		t.Error("Expected fromCache to be true")
	}
	if fetchCalled {
		t.Error("Expected fetch function not to be called")
	}
	if result != (TestData{ID: 1, Name: "Test"}) {
		t.Errorf("Unexpected cached result %+v", result)
	}
}

func TestGetOrFetch_CacheMiss(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	expected := TestData{ID: 2, Name: "Fetched"}
	fetchCalled := 0
	fetchFunc := func() (TestData, error) {
		fetchCalled++
		return expected, nil
	}

	result, fromCache, err := GetOrFetch(TMDBTable, "movie_2", fetchFunc)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fromCache {
		t.Error("Expected fromCache to be false")
	}
	if result != expected {
		t.Errorf("Expected %+v, got %+v", expected, result)
	}
	if !hasEntry(cache, TMDBTable, "movie_2") {
		t.Error("Expected cache entry to be created")
	}

	result, fromCache, err = GetOrFetch(TMDBTable, "movie_2", fetchFunc)
	if err != nil {
		t.Fatalf("Expected no error on second call, got %v", err)
	}
	if !fromCache {
		t.Error("Expected second call to return from cache")
	}
	if fetchCalled != 1 {
		t.Errorf("Expected fetch to be called once, got %d", fetchCalled)
	}
	if result != expected {
		t.Errorf("Expected %+v from cache, got %+v", expected, result)
	}
}

func TestGetOrFetch_ListingUsesListingTTL(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	viper.Set("cache.ttl", "720h")
	viper.Set("cache.listing_ttl", "30m")

	for _, table := range []string{TMDBTable, ListingTable} {
		if err := cache.Set(table, "page_1", `{"id":1,"name":"stale"}`, 0); err != nil {
			t.Fatalf("Failed to seed %s: %v", table, err)
		}
		setCachedAt(t, cache, table, "page_1", time.Now().Add(-time.Hour))
	}

	fresh := TestData{ID: 2, Name: "fresh"}
	listing, fromCache, err := GetOrFetch(ListingTable, "page_1", func() (TestData, error) { return fresh, nil })
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fromCache || listing != fresh {
		t.Fatalf("Expected listing entry to expire after 30m, got %+v (cached=%v)", listing, fromCache)
	}

	details, fromCache, err := GetOrFetch(TMDBTable, "page_1", func() (TestData, error) { return fresh, nil })
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !fromCache || details.Name != "stale" {
		t.Fatalf("Expected details entry to survive, got %+v (cached=%v)", details, fromCache)
	}
}

func TestGetOrFetch_RespectsTTLExpiration(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	if err := cache.Set(TMDBTable, "movie_1", `{"id":1,"name":"stale"}`, 0); err != nil {
		t.Fatalf("Failed to seed stale cache: %v", err)
	}
	setCachedAt(t, cache, TMDBTable, "movie_1", time.Now().Add(-2*time.Hour))

	fresh := TestData{ID: 2, Name: "Fresh"}
	result, fromCache, err := GetOrFetch(TMDBTable, "movie_1", func() (TestData, error) { return fresh, nil })
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fromCache {
		t.Fatal("Expected cache miss due to TTL expiration")
	}
	if result != fresh {
		t.Fatalf("Expected fresh data, got %+v", result)
	}

	cached, hit, err := cache.Get(TMDBTable, "movie_1", time.Hour)
	if err != nil || !hit {
		t.Fatalf("Expected refreshed entry, hit=%v err=%v", hit, err)
	}
	var cachedData TestData
	if err := json.Unmarshal([]byte(cached), &cachedData); err != nil {
		t.Fatalf("Failed to unmarshal cached data: %v", err)
	}
	if cachedData != fresh {
		t.Fatalf("Expected cached data %+v, got %+v", fresh, cachedData)
	}
}

func TestGetOrFetchWithPolicy_SkipsStore(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	_, _, err := GetOrFetchWithPolicy(TMDBTable, "empty", func() ([]int, error) {
		return nil, nil
	}, func(v []int) bool { return len(v) > 0 })
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if hasEntry(cache, TMDBTable, "empty") {
		t.Error("Expected policy to skip caching an empty result")
	}
}

func TestGetOrFetchWithTTL_EntryTTLOverridesTable(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)
	viper.Set("cache.ttl", "720h")

	selector := SelectNegativeCacheTTL(func(v []int) bool { return len(v) == 0 })
	if _, _, err := GetOrFetchWithTTL(TMDBTable, "videos_1", func() ([]int, error) { return []int{}, nil }, selector); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, _, err := GetOrFetchWithTTL(TMDBTable, "videos_2", func() ([]int, error) { return []int{7}, nil }, selector); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	twoDaysAgo := time.Now().Add(-48 * time.Hour)
	setCachedAt(t, cache, TMDBTable, "videos_1", twoDaysAgo)
	setCachedAt(t, cache, TMDBTable, "videos_2", twoDaysAgo)

	if _, hit, _ := cache.Get(TMDBTable, "videos_1", TableTTL(TMDBTable)); hit {
		t.Error("Expected empty result to expire after the negative TTL")
	}
	if _, hit, _ := cache.Get(TMDBTable, "videos_2", TableTTL(TMDBTable)); !hit {
		t.Error("Expected regular result to use the table TTL")
	}
}

func TestGetOrFetch_FetchError(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	fetchErr := errors.New("fetch failed")
	result, fromCache, err := GetOrFetch(TMDBTable, "movie_9", func() (TestData, error) {
		return TestData{}, fetchErr
	})

	if !errors.Is(err, fetchErr) {
		t.Fatalf("Expected wrapped fetch error, got %v", err)
	}
	if fromCache {
		t.Error("Expected fromCache to be false")
	}
	if result != (TestData{}) {
		t.Errorf("Expected zero value, got %+v", result)
	}
	if hasEntry(cache, TMDBTable, "movie_9") {
		t.Error("Expected failures not to be cached")
	}
}

func TestTableTTL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	if got := TableTTL(TMDBTable); got != DefaultCacheTTL {
		t.Errorf("default TTL = %v", got)
	}
	if got := TableTTL(ListingTable); got != DefaultListingTTL {
		t.Errorf("default listing TTL = %v", got)
	}

	viper.Set("cache.listing_ttl", "nonsense")
	if got := TableTTL(ListingTable); got != DefaultListingTTL {
		t.Errorf("invalid listing TTL should fall back, got %v", got)
	}

	viper.Set("cache.ttl", "2h")
	if got := TableTTL(TMDBTable); got != 2*time.Hour {
		t.Errorf("configured TTL = %v", got)
	}
}

func TestCacheDB_GetExpired(t *testing.T) {
	cache := setupTestCache(t)

	if err := cache.Set(TMDBTable, "k", "v", 0); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}
	setCachedAt(t, cache, TMDBTable, "k", time.Now().Add(-2*time.Hour))

	_, hit, err := cache.Get(TMDBTable, "k", time.Hour)
	if err != nil {
		t.Fatalf("Failed to get cache: %v", err)
	}
	if hit {
		t.Error("Expected expired entry to miss")
	}
}

func TestCacheDB_ClearExpired(t *testing.T) {
	cache := setupTestCache(t)

	_ = cache.Set(TMDBTable, "old", "v", 0)
	_ = cache.Set(TMDBTable, "new", "v", 0)
	_ = cache.Set(TMDBTable, "pinned", "v", 72*time.Hour)
	setCachedAt(t, cache, TMDBTable, "old", time.Now().Add(-2*time.Hour))
	setCachedAt(t, cache, TMDBTable, "pinned", time.Now().Add(-2*time.Hour))

	_ = cache.Set(TMDBTable, "empty", "[]", time.Hour)
	setCachedAt(t, cache, TMDBTable, "empty", time.Now().Add(-2*time.Hour))

	deleted, err := cache.ClearExpired(TMDBTable, time.Hour)
	if err != nil {
		t.Fatalf("ClearExpired failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 rows deleted, got %d", deleted)
	}
	if hasEntry(cache, TMDBTable, "empty") {
		t.Error("Expected entry past its own TTL to be removed")
	}
	if hasEntry(cache, TMDBTable, "old") {
		t.Error("Expected old entry to be removed")
	}
	if !hasEntry(cache, TMDBTable, "new") {
		t.Error("Expected new entry to remain")
	}
	if !hasEntry(cache, TMDBTable, "pinned") {
		t.Error("Expected entry with its own TTL to remain")
	}
}

func TestCacheDB_InvalidateSource(t *testing.T) {
	cache := setupTestCache(t)

	for _, key := range []string{"a", "b", "c"} {
		if err := cache.Set(ListingTable, key, "{}", 0); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}
	}

	rows, err := cache.InvalidateSource(ListingTable)
	if err != nil {
		t.Fatalf("InvalidateSource failed: %v", err)
	}
	if rows != 3 {
		t.Errorf("Expected 3 rows deleted, got %d", rows)
	}
	if hasEntry(cache, ListingTable, "a") {
		t.Error("Expected table to be empty")
	}
}

func TestCacheDB_InvalidTableName(t *testing.T) {
	cache := setupTestCache(t)

	if _, err := cache.InvalidateSource("users; DROP TABLE x"); err == nil {
		t.Error("Expected invalid table name to be rejected")
	}
	if err := cache.Set("ratings_cache", "k", "v", 0); err == nil {
		t.Error("Expected unknown table to be rejected")
	}
	if hasEntry(cache, "nope", "k") {
		t.Error("Expected unknown table to report no entry")
	}
}

func TestInvalidateCacheCmd(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	_ = cache.Set(TMDBTable, "movie_1", "{}", 0)
	_ = cache.Set(ListingTable, "now_playing_1", "{}", 0)

	if err := (&InvalidateCacheCmd{Source: "listing"}).Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if hasEntry(cache, ListingTable, "now_playing_1") {
		t.Error("Expected listing cache to be cleared")
	}
	if !hasEntry(cache, TMDBTable, "movie_1") {
		t.Error("Expected details cache to survive")
	}

	if err := (&InvalidateCacheCmd{Source: "tmdb"}).Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if hasEntry(cache, TMDBTable, "movie_1") {
		t.Error("Expected details cache to be cleared")
	}

	err := (&InvalidateCacheCmd{Source: "people"}).Run()
	if err == nil {
		t.Fatal("Expected invalid source error")
	}
	if want := "valid sources are: details, listing, tmdb"; !strings.Contains(err.Error(), want) {
		t.Errorf("Expected %q in %q", want, err.Error())
	}
}


func TestPruneCacheCmd(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)
	viper.Set("cache.ttl", "1h")
	viper.Set("cache.listing_ttl", "30m")

	_ = cache.Set(TMDBTable, "movie_1", "{}", 0)
	_ = cache.Set(TMDBTable, "movie_2", "{}", 0)
	_ = cache.Set(ListingTable, "now_playing_1", "{}", 0)
	setCachedAt(t, cache, TMDBTable, "movie_1", time.Now().Add(-2*time.Hour))
	setCachedAt(t, cache, ListingTable, "now_playing_1", time.Now().Add(-45*time.Minute))

	if err := (&PruneCacheCmd{}).Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if hasEntry(cache, TMDBTable, "movie_1") {
		t.Error("Expected expired details entry to be pruned")
	}
	if !hasEntry(cache, TMDBTable, "movie_2") {
		t.Error("Expected fresh details entry to survive")
	}
	if hasEntry(cache, ListingTable, "now_playing_1") {
		t.Error("Expected listing entry past cache.listing_ttl to be pruned")
	}
}

// hasEntry reports whether a row exists for key, expired or not.
func hasEntry(c *CacheDB, tableName, key string) bool {
	if err := validateTableName(tableName); err != nil {
		return false
	}
	var exists int
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE cache_key = ? LIMIT 1`, tableName)
	return c.db.QueryRow(query, key).Scan(&exists) == nil
}
