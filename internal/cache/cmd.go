package cache

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: tmdb, details, listing" required:""`
}

func (i *InvalidateCacheCmd) Run() error {
	tables, ok := Sources[i.Source]
	if !ok {
		names := make([]string, 0, len(Sources))
		for name := range Sources {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("invalid cache source '%s'; valid sources are: %s", i.Source, strings.Join(names, ", "))
	}

	slog.Info("Invalidating cache", "source", i.Source, "database", viper.GetString("cache.dbfile"))

	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	var total int64
	for _, table := range tables {
		rows, err := cacheInstance.InvalidateSource(table)
		if err != nil {
			return fmt.Errorf("failed to invalidate cache: %w", err)
		}
		total += rows
	}

	slog.Info("Cache invalidated", "source", i.Source, "rows_deleted", total)
	return nil
}

// PruneCacheCmd represents the cache prune subcommand
type PruneCacheCmd struct{}

func (p *PruneCacheCmd) Run() error {
	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	var total int64
	for _, table := range Sources["tmdb"] {
		rows, err := cacheInstance.ClearExpired(table, TableTTL(table))
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}
		total += rows
	}

	slog.Info("Cache pruned", "database", cacheInstance.Path(), "rows_deleted", total)
	return nil
}
