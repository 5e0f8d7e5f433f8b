package roles

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// RoleRepository defines role lookup and creation.
type RoleRepository interface {
	Create(ctx context.Context, names ...string) ([]Role, error)
	FindByName(ctx context.Context, name string, opts ...FindOption) (*Role, error)
	FindByID(ctx context.Context, id int64, opts ...FindOption) (*Role, error)
	Find(ctx context.Context, ref RoleRef, opts ...FindOption) (*Role, error)
	FindOrCreate(ctx context.Context, name string) (Role, error)
	Exists(ctx context.Context, ref RoleRef) (*Role, bool, error)
}

// SubjectRoleManager defines assignment and role checks for subjects.
type SubjectRoleManager interface {
	RoleLoader
	AssignRoles(ctx context.Context, holder RoleHolder, refs ...RoleRef) error
	RevokeRoles(ctx context.Context, holder RoleHolder, refs ...RoleRef) error
	SyncRoles(ctx context.Context, holder RoleHolder, refs ...RoleRef) error
	HasRole(ctx context.Context, holder RoleHolder, ref RoleRef) (bool, error)
	HasAnyRole(ctx context.Context, holder RoleHolder, refs ...RoleRef) (bool, error)
	HasAllRoles(ctx context.Context, holder RoleHolder, refs ...RoleRef) (bool, error)
	Is(ctx context.Context, holder RoleHolder, name string) (bool, error)
	GetRoleNames(ctx context.Context, holder RoleHolder) ([]string, error)
	GetRoles(ctx context.Context, holder RoleHolder) ([]Role, error)
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
	RunMigrations(ctx context.Context) error
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// PoolManager defines the connection pool management interface
type PoolManager interface {
	ConfigureConnectionPool(config PoolConfig) error
	ResetConnectionPool() error
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}

var (
	_ RoleRepository     = (*Service)(nil)
	_ SubjectRoleManager = (*Service)(nil)
	_ MigrationManager   = (*Service)(nil)
	_ HealthMonitor      = (*Service)(nil)
	_ PoolManager        = (*Service)(nil)
	_ TransactionMonitor = (*Service)(nil)
)
