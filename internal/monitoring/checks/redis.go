package checks

import (
	"context"
	"time"

	"github.com/clothingloop/server/internal/monitoring"
)

const defaultRedisTimeout = 2 * time.Second

// RedisPinger is the part of the Redis store the probe needs.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Redis returns a readiness probe for the Redis cache. The check is optional:
// rate limits and counters fall back to the database store.
func Redis(client RedisPinger, enabled bool, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		if !enabled {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled"}
		}
		if client == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "redis unavailable"}
		}
		start := time.Now()
		return monitoring.ResultFromError("redis", client.Ping(ctx), time.Since(start))
	}, monitoring.Optional(), monitoring.WithTimeout(chooseTimeout(timeout, defaultRedisTimeout)))
}
