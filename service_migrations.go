package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/fernandezvara/dbkit"
	"go.uber.org/zap"
)

// Migrations returns the database migrations for the configured tables.
// The subject table belongs to the host application and must exist before they run.
// Use service.RunMigrations(ctx), or pass them to dbkit yourself:
//
//	result, err := db.Migrate(ctx, service.Migrations())
func (s *Service) Migrations() []dbkit.Migration {
	return migrationsFor(s.cfg)
}

func migrationsFor(cfg Config) []dbkit.Migration {
	roles := quoteIdent(cfg.RolesTable)
	pivot := quoteIdent(cfg.PivotTable)
	subjects := quoteIdent(cfg.SubjectTable)
	subjectCol := quoteIdent(cfg.SubjectColumn)
	roleCol := quoteIdent(RoleColumn)
	index := quoteIdent(baseName(cfg.PivotTable) + "_" + RoleColumn + "_idx")

	return []dbkit.Migration{
		{
			ID:          migrationID("roles-001", cfg.RolesTable, "roles"),
			Description: fmt.Sprintf("Create %s table", cfg.RolesTable),
			SQL: fmt.Sprintf(`
                CREATE TABLE IF NOT EXISTS %s (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL UNIQUE
                )`, roles),
		},
		{
			ID:          migrationID("roles-002", cfg.PivotTable, "role_user"),
			Description: fmt.Sprintf("Create %s table", cfg.PivotTable),
			SQL: fmt.Sprintf(`
                CREATE TABLE IF NOT EXISTS %[1]s (
                    %[2]s BIGINT NOT NULL REFERENCES %[3]s (id) ON DELETE CASCADE,
                    %[4]s BIGINT NOT NULL REFERENCES %[5]s (id) ON DELETE CASCADE,
                    PRIMARY KEY (%[2]s, %[4]s)
                );
                CREATE INDEX IF NOT EXISTS %[6]s ON %[1]s (%[4]s)`,
				pivot, subjectCol, subjects, roleCol, roles, index),
		},
	}
}

// migrationID suffixes non-default table names so several configurations can
// share one dbkit migrations table.
func migrationID(id, table, defaultTable string) string {
	if table == defaultTable {
		return id
	}
	return id + "-" + table
}

// RunMigrations applies Migrations. It needs a *dbkit.DBKit handle.
func (s *Service) RunMigrations(ctx context.Context) error {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return NewError(ErrDatabaseError, "migrations require a dbkit.DBKit instance")
	}

	result, err := db.Migrate(ctx, s.Migrations())
	if err != nil {
		return dbkit.WithErr1(err, "RunMigrations").Err()
	}

	s.logger.Info("migrations applied",
		zap.Int("applied", len(result.Applied)),
		zap.String("roles_table", s.cfg.RolesTable),
		zap.String("pivot_table", s.cfg.PivotTable))
	return nil
}

// quoteIdent double-quotes each part of a validated, optionally schema-qualified name.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}
