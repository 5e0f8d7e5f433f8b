package roles

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ============================================================================
// SUBJECT ROLE MUTATIONS
// ============================================================================

// AssignRoles gives the subject every referenced role. Lists are flattened and
// roles already held are skipped, so repeating a call changes nothing.
// If any reference does not resolve, no role is assigned.
//
// Example:
//
//	err := service.AssignRoles(ctx, user, roles.Name("admin"), roles.ID(3))
func (s *Service) AssignRoles(ctx context.Context, holder RoleHolder, refs ...RoleRef) error {
	subjectID := holder.RoleHolderID()

	err := s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		resolved, err := tx.resolveRoles(ctx, refs...)
		if err != nil {
			return err
		}
		if err := tx.attach(ctx, subjectID, resolved); err != nil {
			return err
		}
		tx.invalidate(subjectID)
		s.logger.Debug("roles assigned", zap.Int64("subject_id", subjectID), zap.Strings("roles", roleNames(resolved)))
		return nil
	})
	return err
}

// RevokeRoles removes the referenced roles from the subject. Roles the subject
// does not hold are ignored; references to missing roles are ErrRoleNotFound.
func (s *Service) RevokeRoles(ctx context.Context, holder RoleHolder, refs ...RoleRef) error {
	subjectID := holder.RoleHolderID()

	return s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		resolved, err := tx.resolveRoles(ctx, refs...)
		if err != nil {
			return err
		}
		if err := tx.detach(ctx, subjectID, resolved); err != nil {
			return err
		}
		tx.invalidate(subjectID)
		s.logger.Debug("roles revoked", zap.Int64("subject_id", subjectID), zap.Strings("roles", roleNames(resolved)))
		return nil
	})
}

// SyncRoles replaces the subject's roles with exactly the referenced set.
// All references are resolved before anything is detached; any failure leaves
// the previous assignments in place.
func (s *Service) SyncRoles(ctx context.Context, holder RoleHolder, refs ...RoleRef) error {
	subjectID := holder.RoleHolderID()

	return s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		resolved, err := tx.resolveRoles(ctx, refs...)
		if err != nil {
			return err
		}
		if err := tx.detachAll(ctx, subjectID); err != nil {
			return err
		}
		if err := tx.attach(ctx, subjectID, resolved); err != nil {
			return err
		}
		tx.invalidate(subjectID)
		s.logger.Debug("roles synced", zap.Int64("subject_id", subjectID), zap.Strings("roles", roleNames(resolved)))
		return nil
	})
}

// RevokeAllRoles removes every role from the subject.
func (s *Service) RevokeAllRoles(ctx context.Context, holder RoleHolder) error {
	return s.SyncRoles(ctx, holder)
}

// ============================================================================
// SUBJECT ROLE QUERIES
// ============================================================================

// LoadSubjectRoles reads the subject's current roles into a snapshot.
// With WithRoleCache the snapshot may be served from memory outside transactions.
func (s *Service) LoadSubjectRoles(ctx context.Context, holder RoleHolder) (*SubjectRoles, error) {
	subjectID := holder.RoleHolderID()

	useCache := s.cache != nil && s.pending == nil
	if useCache {
		if sr, ok := s.cache.get(subjectID); ok {
			s.metrics.observeCache(true)
			return sr, nil
		}
		s.metrics.observeCache(false)
	}

	loaded, err := s.loadRoles(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	sr := NewSubjectRoles(subjectID, loaded)
	if useCache {
		s.cache.set(sr)
	}
	return sr, nil
}

// HasRole reports whether the subject holds the referenced role.
// A list reference matches when any of its elements does.
func (s *Service) HasRole(ctx context.Context, holder RoleHolder, ref RoleRef) (bool, error) {
	sr, err := s.LoadSubjectRoles(ctx, holder)
	if err != nil {
		return false, err
	}
	return sr.HasRole(ref), nil
}

// HasAnyRole reports whether the subject holds at least one referenced role. No references is false.
func (s *Service) HasAnyRole(ctx context.Context, holder RoleHolder, refs ...RoleRef) (bool, error) {
	sr, err := s.LoadSubjectRoles(ctx, holder)
	if err != nil {
		return false, err
	}
	return sr.HasAnyRole(refs...), nil
}

// HasAllRoles reports whether the subject holds every referenced role. No references is true.
func (s *Service) HasAllRoles(ctx context.Context, holder RoleHolder, refs ...RoleRef) (bool, error) {
	sr, err := s.LoadSubjectRoles(ctx, holder)
	if err != nil {
		return false, err
	}
	return sr.HasAllRoles(refs...), nil
}

// Is reports whether the subject holds a role with exactly this name.
func (s *Service) Is(ctx context.Context, holder RoleHolder, name string) (bool, error) {
	sr, err := s.LoadSubjectRoles(ctx, holder)
	if err != nil {
		return false, err
	}
	return sr.Is(name), nil
}

// GetRoleNames returns the names of the subject's roles ordered by role id.
func (s *Service) GetRoleNames(ctx context.Context, holder RoleHolder) ([]string, error) {
	sr, err := s.LoadSubjectRoles(ctx, holder)
	if err != nil {
		return nil, err
	}
	return sr.Names(), nil
}

// GetRoles returns the subject's roles ordered by role id.
func (s *Service) GetRoles(ctx context.Context, holder RoleHolder) ([]Role, error) {
	sr, err := s.LoadSubjectRoles(ctx, holder)
	if err != nil {
		return nil, err
	}
	return sr.Roles(), nil
}

// SubjectIDsWithRole returns the distinct ids of subjects holding any of the
// referenced roles, ascending. Missing roles simply match nobody.
//
// Example:
//
//	admins, err := service.SubjectIDsWithRole(ctx, roles.Name("admin"))
func (s *Service) SubjectIDsWithRole(ctx context.Context, refs ...RoleRef) ([]int64, error) {
	var (
		ids   []int64
		names []string
	)
	for _, ref := range Flatten(refs...) {
		switch ref.kind {
		case RefByID:
			ids = append(ids, ref.id)
		case RefByRole:
			ids = append(ids, ref.role.ID)
		case RefByName:
			names = append(names, ref.name)
		case RefByList, refInvalid:
			return nil, NewError(ErrInvalidReference, "cannot filter subjects by a "+ref.kind.String()+" reference")
		}
	}
	if len(ids) == 0 && len(names) == 0 {
		return []int64{}, nil
	}

	q := s.db.NewSelect().
		TableExpr("? AS ra", bun.Ident(s.cfg.PivotTable)).
		Join("JOIN ? AS role ON role.id = ra.?", bun.Ident(s.cfg.RolesTable), bun.Ident(RoleColumn)).
		ColumnExpr("DISTINCT ra.?", bun.Ident(s.cfg.SubjectColumn)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			if len(ids) > 0 {
				q = q.WhereOr("role.id IN (?)", bun.In(ids))
			}
			if len(names) > 0 {
				q = q.WhereOr("role.name IN (?)", bun.In(names))
			}
			return q
		}).
		OrderExpr("ra.? ASC", bun.Ident(s.cfg.SubjectColumn))

	subjects := []int64{}
	err := dbkit.WithErr1(q.Scan(ctx, &subjects), "SubjectIDsWithRole").Err()
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return subjects, nil
}
