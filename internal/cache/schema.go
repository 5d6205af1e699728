package cache

import "fmt"

// Cache table names. All tables share one layout keyed by cache_key.
const (
	// TMDBTable holds movie details and video lists.
	TMDBTable = "tmdb_cache"
	// ListingTable holds now-playing listing pages, which go stale quickly.
	ListingTable = "tmdb_listing_cache"
)

// tableSchema returns the CREATE statements for a cache table. ttl_seconds
// overrides the table TTL for a single entry when non-zero.
func tableSchema(name string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	ttl_seconds INTEGER NOT NULL DEFAULT 0,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_cached_at ON %[1]s(cached_at);
`, name)
}

// AllCacheSchemas contains all cache table schemas for initialization.
var AllCacheSchemas = []string{
	tableSchema(TMDBTable),
	tableSchema(ListingTable),
}

// ValidCacheTableNames is the whitelist of table names that may be
// interpolated into queries.
var ValidCacheTableNames = map[string]bool{
	TMDBTable:    true,
	ListingTable: true,
}

// Sources maps the names accepted by "cache invalidate" to their tables.
var Sources = map[string][]string{
	"tmdb":    {TMDBTable, ListingTable},
	"details": {TMDBTable},
	"listing": {ListingTable},
}
