package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/database"
	"github.com/clothingloop/server/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database pings the handle. A reachable database whose pool has every
// connection in use and callers waiting reports degraded.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		start := time.Now()
		result := monitoring.ResultFromError("database", database.Ping(ctx, db), time.Since(start))
		if result.Status != monitoring.StatusUp {
			return result
		}

		sqlDB, err := db.DB()
		if err != nil {
			return result
		}
		stats := sqlDB.Stats()
		result.Details = fmt.Sprintf("%d open, %d in use", stats.OpenConnections, stats.InUse)
		if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections && stats.WaitCount > 0 {
			result.Status = monitoring.StatusDegraded
			result.Details += fmt.Sprintf(", pool exhausted after %d waits", stats.WaitCount)
		}
		return result
	}, monitoring.WithTimeout(chooseTimeout(timeout, defaultDatabaseTimeout)))
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
