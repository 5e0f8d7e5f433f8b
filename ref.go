package roles

import (
	"strconv"
	"strings"
)

// RefKind identifies which variant a RoleRef holds.
type RefKind int

const (
	refInvalid RefKind = iota
	// RefByID references a role by its numeric id.
	RefByID
	// RefByName references a role by its unique name.
	RefByName
	// RefByRole references a role through a previously loaded Role value.
	RefByRole
	// RefByList groups several references. Evaluation treats a list as "any of".
	RefByList
)

// String returns the kind name.
func (k RefKind) String() string {
	switch k {
	case RefByID:
		return "id"
	case RefByName:
		return "name"
	case RefByRole:
		return "role"
	case RefByList:
		return "list"
	}
	return "invalid"
}

// RoleRef is a reference to one or more roles.
// Build it with ID, Name, Of or List; the zero value is invalid.
type RoleRef struct {
	kind RefKind
	id   int64
	name string
	role Role
	list []RoleRef
}

// ID references a role by id.
func ID(id int64) RoleRef {
	return RoleRef{kind: RefByID, id: id}
}

// Name references a role by name.
func Name(name string) RoleRef {
	return RoleRef{kind: RefByName, name: name}
}

// Of references a loaded role. Lookups re-read it by id so a stale value is detected.
func Of(role Role) RoleRef {
	return RoleRef{kind: RefByRole, role: role}
}

// List groups references.
func List(refs ...RoleRef) RoleRef {
	return RoleRef{kind: RefByList, list: append([]RoleRef(nil), refs...)}
}

// Names converts role names into references.
func Names(names ...string) []RoleRef {
	refs := make([]RoleRef, len(names))
	for i, n := range names {
		refs[i] = Name(n)
	}
	return refs
}

// IDs converts role ids into references.
func IDs(ids ...int64) []RoleRef {
	refs := make([]RoleRef, len(ids))
	for i, id := range ids {
		refs[i] = ID(id)
	}
	return refs
}

// ParseRef reads a command line style reference: all digits is an id, anything else a name.
func ParseRef(s string) RoleRef {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		return ID(id)
	}
	return Name(s)
}

// Kind returns the variant held by the reference.
func (r RoleRef) Kind() RefKind {
	return r.kind
}

// IsValid reports whether the reference was built with a constructor.
func (r RoleRef) IsValid() bool {
	return r.kind != refInvalid
}

// String renders the reference for logs and error messages.
func (r RoleRef) String() string {
	switch r.kind {
	case RefByID:
		return "#" + strconv.FormatInt(r.id, 10)
	case RefByName:
		return r.name
	case RefByRole:
		return r.role.Name
	case RefByList:
		parts := make([]string, len(r.list))
		for i, ref := range r.list {
			parts[i] = ref.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "<invalid>"
}

// Flatten expands nested lists, keeping order.
func Flatten(refs ...RoleRef) []RoleRef {
	out := make([]RoleRef, 0, len(refs))
	for _, ref := range refs {
		if ref.kind == RefByList {
			out = append(out, Flatten(ref.list...)...)
			continue
		}
		out = append(out, ref)
	}
	return out
}
