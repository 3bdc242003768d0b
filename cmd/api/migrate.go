package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/internal/cache"
	"docvault/internal/database/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema when it does not exist yet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()
		return migration.EnsureMigrated(cmd.Context(), rt.db, rt.log, rt.cfg.Database.Host)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default categories that are missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		if err := migration.EnsureMigrated(ctx, rt.db, rt.log, rt.cfg.Database.Host); err != nil {
			return err
		}
		created, err := migration.Seed(ctx, rt.db, rt.log, migration.DefaultCategories)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		// Running servers must not keep serving the old category list.
		c, closeCache, err := newCache(rt, nil)
		if err != nil {
			return err
		}
		defer closeCache()
		c.Delete(ctx, cache.CategoriesAll)

		rt.log.Info("seed_complete", zap.Int("created", created))
		return nil
	},
}

// newCache returns the Redis cache, or cache.Nop when Redis is disabled.
func newCache(rt *runtime, reg prometheus.Registerer) (cache.Cache, func(), error) {
	if !rt.cfg.Redis.Enabled {
		rt.log.Info("cache_disabled")
		return cache.Nop{}, func() {}, nil
	}
	client := redis.NewClient(cache.ClientOptions(rt.cfg.Redis.Addr, rt.cfg.Redis.Password, rt.cfg.Redis.DB))
	c, err := cache.NewRedis(client, cache.Options{
		RetryBase:  rt.cfg.Redis.RetryBase,
		Logger:     rt.log.Named("cache"),
		Registerer: reg,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("cache: %w", err)
	}
	return c, func() { _ = client.Close() }, nil
}
