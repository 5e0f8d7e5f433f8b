package roles

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Health reports the database status. A transaction-bound Service only pings.
func (s *Service) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}

	status := dbkit.HealthStatus{Healthy: s.IsHealthy(ctx)}
	if !status.Healthy {
		status.Error = "ping failed"
	}
	return status
}

// IsHealthy returns true if the database is reachable.
func (s *Service) IsHealthy(ctx context.Context) bool {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.IsHealthy(ctx)
	}
	return s.Ping(ctx) == nil
}

// GetPoolStats returns connection pool statistics, or zero values without a *dbkit.DBKit.
func (s *Service) GetPoolStats() dbkit.PoolStats {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}

// Ping runs a trivial query against the roles table's database.
func (s *Service) Ping(ctx context.Context) error {
	var one int
	return dbkit.WithErr1(s.db.NewRaw("SELECT 1").Scan(ctx, &one), "Ping").Err()
}
