package roles

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fernandezvara/dbkit"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

// selectRoles starts a select over the configured roles table, aliased "role".
func (s *Service) selectRoles(dest any) *bun.SelectQuery {
	return s.db.NewSelect().Model(dest).ModelTableExpr("? AS role", bun.Ident(s.cfg.RolesTable))
}

func (s *Service) findRole(ctx context.Context, op, where string, arg any) (*Role, error) {
	role := new(Role)
	err := dbkit.WithErr1(s.selectRoles(role).Where(where, arg).Limit(1).Scan(ctx), op).Err()
	if err != nil {
		if dbkit.IsNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return role, nil
}

func (s *Service) existingNames(ctx context.Context, names []string) (map[string]bool, error) {
	var found []string
	err := dbkit.WithErr1(s.db.NewRaw("SELECT name FROM ? WHERE name IN (?)",
		bun.Ident(s.cfg.RolesTable), bun.In(names)).Scan(ctx, &found), "ExistingRoleNames").Err()
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	set := make(map[string]bool, len(found))
	for _, n := range found {
		set[n] = true
	}
	return set, nil
}

func (s *Service) loadRoles(ctx context.Context, subjectID int64) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.selectRoles(&roles).
		Join("JOIN ? AS ra ON ra.? = role.id", bun.Ident(s.cfg.PivotTable), bun.Ident(RoleColumn)).
		Where("ra.? = ?", bun.Ident(s.cfg.SubjectColumn), subjectID).
		Order("role.id").
		Scan(ctx), "LoadSubjectRoles").Err()
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return roles, nil
}

// attach inserts the missing (subject, role) pairs. Roles deleted since they
// were resolved are skipped by the join instead of failing the insert.
func (s *Service) attach(ctx context.Context, subjectID int64, roles []Role) error {
	if len(roles) == 0 {
		return nil
	}

	result, err := s.db.NewRaw("INSERT INTO ? (?, ?) SELECT ?, r.id FROM ? AS r WHERE r.id IN (?) ORDER BY r.id ON CONFLICT DO NOTHING",
		bun.Ident(s.cfg.PivotTable), bun.Ident(s.cfg.SubjectColumn), bun.Ident(RoleColumn),
		subjectID, bun.Ident(s.cfg.RolesTable), bun.In(roleIDs(roles))).Exec(ctx)
	if isForeignKeyViolation(err) {
		return NewError(ErrSubjectNotFound, "no "+s.cfg.AssociatedModel+" row for subject").WithSubject(subjectID)
	}
	return dbkit.WithErr(result, err, "AttachRoles").Err()
}

func (s *Service) detach(ctx context.Context, subjectID int64, roles []Role) error {
	if len(roles) == 0 {
		return nil
	}

	result, err := s.db.NewRaw("DELETE FROM ? WHERE ? = ? AND ? IN (?)",
		bun.Ident(s.cfg.PivotTable), bun.Ident(s.cfg.SubjectColumn), subjectID,
		bun.Ident(RoleColumn), bun.In(roleIDs(roles))).Exec(ctx)
	return dbkit.WithErr(result, err, "DetachRoles").Err()
}

func (s *Service) detachAll(ctx context.Context, subjectID int64) error {
	result, err := s.db.NewRaw("DELETE FROM ? WHERE ? = ?",
		bun.Ident(s.cfg.PivotTable), bun.Ident(s.cfg.SubjectColumn), subjectID).Exec(ctx)
	return dbkit.WithErr(result, err, "DetachAllRoles").Err()
}

func roleIDs(roles []Role) []int64 {
	ids := make([]int64, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return ids
}

func roleNames(roles []Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	return names
}

// validateNames rejects empty input, blank names and names repeated within one call.
func validateNames(names []string) error {
	if len(names) == 0 {
		return NewError(ErrInvalidRoleName, "no role names given")
	}

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return NewError(ErrInvalidRoleName, "role name cannot be empty")
		}
		if seen[n] {
			return NewError(ErrInvalidRoleName, "role name listed more than once").WithNames(n)
		}
		seen[n] = true
	}
	return nil
}

const foreignKeyViolation = "23503"

// isForeignKeyViolation recognises SQLSTATE 23503 from either Postgres driver.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == foreignKeyViolation
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == foreignKeyViolation
	}

	return false
}
