package bootstrap

import (
	"context"
	"log"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/cache"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/config"
	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/notifier"
)

// initializeReportCache picks the run-report cache backend. Redis keeps
// the last report visible across replicas; memory is the single-instance
// default.
func initializeReportCache(cfg *config.Config) (cache.Cache[*notifier.RunReport], error) {
	switch cfg.CacheType {
	case config.CacheTypeRedis:
		c, err := cache.NewRedisCache[*notifier.RunReport](
			context.Background(),
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
		)
		if err != nil {
			return nil, err
		}
		log.Printf("Report cache: redis (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)
		return c, nil
	default:
		log.Println("Report cache: memory (single instance only)")
		return cache.NewMemoryCache[*notifier.RunReport](), nil
	}
}
