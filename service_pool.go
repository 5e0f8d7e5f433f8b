package roles

import (
	"github.com/fernandezvara/dbkit"
	"go.uber.org/zap"
)

// ConfigureConnectionPool applies pool limits to the underlying *sql.DB.
func (s *Service) ConfigureConnectionPool(cfg PoolConfig) error {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return NewError(ErrDatabaseError, "connection pool configuration requires a dbkit.DBKit instance")
	}

	bunDB := db.Bun()
	if bunDB == nil {
		return NewError(ErrDatabaseError, "database instance not available")
	}

	bunDB.SetMaxOpenConns(cfg.MaxOpenConnections)
	bunDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	bunDB.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)
	bunDB.SetConnMaxIdleTime(cfg.ConnectionMaxIdleTime)

	s.logger.Info("connection pool configured",
		zap.Int("max_open", cfg.MaxOpenConnections),
		zap.Int("max_idle", cfg.MaxIdleConnections),
		zap.Duration("max_lifetime", cfg.ConnectionMaxLifetime),
		zap.Duration("max_idle_time", cfg.ConnectionMaxIdleTime))

	return nil
}

// ResetConnectionPool restores DefaultPoolConfig.
func (s *Service) ResetConnectionPool() error {
	return s.ConfigureConnectionPool(DefaultPoolConfig())
}
