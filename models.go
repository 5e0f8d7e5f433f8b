package roles

import (
	"github.com/uptrace/bun"
)

// Role is a named grouping that subjects can hold.
// The table name in the tag is the default; queries use the configured table.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:role"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

// RoleHolder is implemented by any host entity that can hold roles.
type RoleHolder interface {
	RoleHolderID() int64
}

// Subject is a RoleHolder for callers that only know the subject id.
type Subject int64

// RoleHolderID implements RoleHolder.
func (s Subject) RoleHolderID() int64 {
	return int64(s)
}

// SubjectRoles is a snapshot of the roles a subject held when it was loaded.
type SubjectRoles struct {
	SubjectID int64

	roles []Role

	// Indexed for fast lookup
	byID   map[int64]struct{}
	byName map[string]struct{}
}

// NewSubjectRoles indexes a subject's roles.
func NewSubjectRoles(subjectID int64, roles []Role) *SubjectRoles {
	sr := &SubjectRoles{
		SubjectID: subjectID,
		roles:     append([]Role(nil), roles...),
		byID:      make(map[int64]struct{}, len(roles)),
		byName:    make(map[string]struct{}, len(roles)),
	}

	for _, r := range roles {
		sr.byID[r.ID] = struct{}{}
		sr.byName[r.Name] = struct{}{}
	}

	return sr
}

// HasRole reports whether the reference matches a held role.
// Ids and Role values match by id, names by exact name, lists when any element matches.
func (sr *SubjectRoles) HasRole(ref RoleRef) bool {
	switch ref.kind {
	case RefByID:
		_, ok := sr.byID[ref.id]
		return ok
	case RefByName:
		_, ok := sr.byName[ref.name]
		return ok
	case RefByRole:
		_, ok := sr.byID[ref.role.ID]
		return ok
	case RefByList:
		for _, r := range ref.list {
			if sr.HasRole(r) {
				return true
			}
		}
		return false
	case refInvalid:
		return false
	}
	return false
}

// HasAnyRole reports whether at least one flattened reference is held.
func (sr *SubjectRoles) HasAnyRole(refs ...RoleRef) bool {
	for _, ref := range Flatten(refs...) {
		if sr.HasRole(ref) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether every flattened reference is held.
func (sr *SubjectRoles) HasAllRoles(refs ...RoleRef) bool {
	for _, ref := range Flatten(refs...) {
		if !sr.HasRole(ref) {
			return false
		}
	}
	return true
}

// Is checks membership by exact name.
func (sr *SubjectRoles) Is(name string) bool {
	_, ok := sr.byName[name]
	return ok
}

// Names returns the held role names in load order.
func (sr *SubjectRoles) Names() []string {
	names := make([]string, len(sr.roles))
	for i, r := range sr.roles {
		names[i] = r.Name
	}
	return names
}

// Roles returns a copy of the held roles.
func (sr *SubjectRoles) Roles() []Role {
	return append([]Role(nil), sr.roles...)
}

// IsEmpty returns true if the subject holds no roles.
func (sr *SubjectRoles) IsEmpty() bool {
	return len(sr.roles) == 0
}
