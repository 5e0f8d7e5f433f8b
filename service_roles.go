package roles

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ============================================================================
// ROLE REPOSITORY
// ============================================================================

// FindOption changes how a lookup treats a missing role.
type FindOption func(*findOptions)

type findOptions struct {
	ignoreMissing bool
}

// IgnoreMissing makes a lookup return nil instead of ErrRoleNotFound.
func IgnoreMissing() FindOption {
	return func(o *findOptions) { o.ignoreMissing = true }
}

// Strict makes a lookup return ErrRoleNotFound when nothing matches.
func Strict() FindOption {
	return func(o *findOptions) { o.ignoreMissing = false }
}

func applyFindOptions(ignoreMissing bool, opts []FindOption) findOptions {
	o := findOptions{ignoreMissing: ignoreMissing}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Create creates one role per name, in input order.
// If any name is already taken nothing is created and the error lists every colliding name.
//
// Example:
//
//	created, err := service.Create(ctx, "admin", "editor")
//	if roles.IsRoleAlreadyExists(err) {
//	    var e *roles.Error
//	    errors.As(err, &e) // e.Names holds the taken names
//	}
func (s *Service) Create(ctx context.Context, names ...string) ([]Role, error) {
	if err := validateNames(names); err != nil {
		return nil, err
	}

	created := make([]Role, len(names))
	for i, n := range names {
		created[i] = Role{Name: n}
	}

	err := s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		existing, err := tx.existingNames(ctx, names)
		if err != nil {
			return err
		}

		var collisions []string
		for _, n := range names {
			if existing[n] {
				collisions = append(collisions, n)
			}
		}
		if len(collisions) > 0 {
			return roleAlreadyExists(collisions)
		}

		result, err := tx.db.NewInsert().
			Model(&created).
			ModelTableExpr("?", bun.Ident(tx.cfg.RolesTable)).
			Returning("id").
			Exec(ctx)
		if dbkit.IsDuplicate(err) {
			// Lost a race with a concurrent creator; the unique constraint decided.
			return roleAlreadyExists(names)
		}
		return dbkit.WithErr(result, err, "CreateRoles").Err()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("roles created", zap.Strings("names", names))
	return created, nil
}

// CreateOne creates a single role.
func (s *Service) CreateOne(ctx context.Context, name string) (Role, error) {
	created, err := s.Create(ctx, name)
	if err != nil {
		return Role{}, err
	}
	return created[0], nil
}

// FindByName looks a role up by exact name. Missing roles are an error unless IgnoreMissing is passed.
func (s *Service) FindByName(ctx context.Context, name string, opts ...FindOption) (*Role, error) {
	o := applyFindOptions(false, opts)

	role, err := s.findRole(ctx, "FindRoleByName", "role.name = ?", name)
	if err != nil {
		return nil, err
	}
	if role == nil && !o.ignoreMissing {
		return nil, roleNotFoundByName(name)
	}
	return role, nil
}

// FindByID looks a role up by id. Missing roles are an error unless IgnoreMissing is passed.
func (s *Service) FindByID(ctx context.Context, id int64, opts ...FindOption) (*Role, error) {
	o := applyFindOptions(false, opts)

	role, err := s.findRole(ctx, "FindRoleByID", "role.id = ?", id)
	if err != nil {
		return nil, err
	}
	if role == nil && !o.ignoreMissing {
		return nil, roleNotFoundByID(id)
	}
	return role, nil
}

// Find dispatches on the reference kind. Unlike FindByName and FindByID it
// returns nil for a missing role unless Strict is passed.
func (s *Service) Find(ctx context.Context, ref RoleRef, opts ...FindOption) (*Role, error) {
	o := applyFindOptions(true, opts)
	opt := func(fo *findOptions) { *fo = o }

	switch ref.kind {
	case RefByID:
		return s.FindByID(ctx, ref.id, opt)
	case RefByName:
		return s.FindByName(ctx, ref.name, opt)
	case RefByRole:
		return s.FindByID(ctx, ref.role.ID, opt)
	case RefByList, refInvalid:
		return nil, NewError(ErrInvalidReference, "cannot look up a "+ref.kind.String()+" reference")
	}
	return nil, NewError(ErrInvalidReference, "unknown reference kind")
}

// FindOrCreate returns the role with this name, creating it if needed.
// Concurrent callers with the same name end up with the same row.
func (s *Service) FindOrCreate(ctx context.Context, name string) (Role, error) {
	if err := validateNames([]string{name}); err != nil {
		return Role{}, err
	}

	var role *Role
	err := s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		var err error
		role, err = tx.FindByName(ctx, name, IgnoreMissing())
		if err != nil || role != nil {
			return err
		}

		result, err := tx.db.NewInsert().
			Model(&Role{Name: name}).
			ModelTableExpr("?", bun.Ident(tx.cfg.RolesTable)).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err = dbkit.WithErr(result, err, "FindOrCreateRole").Err(); err != nil {
			return err
		}

		role, err = tx.FindByName(ctx, name)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	return *role, nil
}

// Exists reports whether the referenced role exists, returning it when it does.
func (s *Service) Exists(ctx context.Context, ref RoleRef) (*Role, bool, error) {
	role, err := s.Find(ctx, ref, IgnoreMissing())
	if err != nil {
		return nil, false, err
	}
	return role, role != nil, nil
}

// AllRoles returns every role ordered by id.
func (s *Service) AllRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.selectRoles(&roles).Order("role.id").Scan(ctx), "AllRoles").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// CountRoles returns the number of roles.
func (s *Service) CountRoles(ctx context.Context) (int, error) {
	return dbkit.Count[Role](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.ModelTableExpr("? AS role", bun.Ident(s.cfg.RolesTable))
	})
}

// DeleteRole deletes a role. Its assignments are removed by the cascading foreign key.
func (s *Service) DeleteRole(ctx context.Context, ref RoleRef) error {
	role, err := s.storedRole(ctx, ref)
	if err != nil {
		return err
	}

	result, err := s.db.NewDelete().
		Model((*Role)(nil)).
		ModelTableExpr("? AS role", bun.Ident(s.cfg.RolesTable)).
		Where("role.id = ?", role.ID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteRole").Err(); err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return roleNotFoundByID(role.ID)
	}

	s.invalidateAll()
	s.logger.Debug("role deleted", zap.Int64("role_id", role.ID), zap.String("name", role.Name))
	return nil
}

// storedRole resolves a single reference against the store. Role values are
// re-read by id so a role deleted since it was loaded is reported missing.
func (s *Service) storedRole(ctx context.Context, ref RoleRef) (Role, error) {
	var (
		role *Role
		err  error
	)

	switch ref.kind {
	case RefByID:
		role, err = s.FindByID(ctx, ref.id)
	case RefByName:
		role, err = s.FindByName(ctx, ref.name)
	case RefByRole:
		role, err = s.FindByID(ctx, ref.role.ID)
	case RefByList, refInvalid:
		return Role{}, NewError(ErrInvalidReference, "cannot resolve a "+ref.kind.String()+" reference to one role")
	default:
		return Role{}, NewError(ErrInvalidReference, "unknown reference kind")
	}
	if err != nil {
		return Role{}, err
	}
	return *role, nil
}

// resolveRoles flattens refs and resolves each one, dropping duplicates.
func (s *Service) resolveRoles(ctx context.Context, refs ...RoleRef) ([]Role, error) {
	flat := Flatten(refs...)
	resolved := make([]Role, 0, len(flat))
	seen := make(map[int64]bool, len(flat))

	for _, ref := range flat {
		role, err := s.storedRole(ctx, ref)
		if err != nil {
			return nil, err
		}
		if seen[role.ID] {
			continue
		}
		seen[role.ID] = true
		resolved = append(resolved, role)
	}
	return resolved, nil
}
