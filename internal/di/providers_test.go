package di

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/pkg/cache"
	"FinCast/pkg/config"
	applogger "FinCast/pkg/logger"
)

func TestProvidePredictionCacheRedisPool(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Cache.Backend = "redis"
	cfg.Cache.Redis.Addr = mr.Addr()
	cfg.Cache.Redis.PoolSize = 7
	cfg.Cache.Redis.MinIdleConns = 3
	cfg.Cache.Redis.PoolTimeout = 5 * time.Second

	c, cleanup := ProvidePredictionCache(cfg, applogger.Nop())
	defer cleanup()

	rc, ok := c.(*cache.RedisCache)
	require.True(t, ok, "got %T", c)
	opts := rc.Client().Options()
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 3, opts.MinIdleConns)
	assert.Equal(t, 5*time.Second, opts.PoolTimeout)
}

func TestProvidePredictionCacheRedisDownIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Cache.Backend = "redis"
	cfg.Cache.Redis.Addr = addr

	c, cleanup := ProvidePredictionCache(cfg, applogger.Nop())
	defer cleanup()
	assert.IsType(t, cache.Noop{}, c)
}
