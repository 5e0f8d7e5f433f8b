package roles

import (
	"strings"
)

// Mode selects how a requirement's roles combine.
type Mode int

const (
	// ModeAny is satisfied when the subject holds at least one required role.
	ModeAny Mode = iota
	// ModeAll is satisfied only when the subject holds every required role.
	ModeAll
)

// String returns "any" or "all".
func (m Mode) String() string {
	if m == ModeAll {
		return "all"
	}
	return "any"
}

// requiredToken is the leading token that switches a requirement to ModeAll.
const requiredToken = "required"

// Requirement is a parsed middleware role requirement.
type Requirement struct {
	Mode  Mode
	Roles []string
}

// ParseRequirement reads route tokens. A leading "required" (any case) selects
// ModeAll and is dropped; anything else is ModeAny over all tokens.
//
// Example:
//
//	req, _ := roles.ParseRequirement("required", "admin", "editor") // ModeAll, [admin editor]
//	req, _ = roles.ParseRequirement("admin", "editor")              // ModeAny, [admin editor]
func ParseRequirement(tokens ...string) (Requirement, error) {
	req := Requirement{Mode: ModeAny}

	if len(tokens) > 0 && strings.EqualFold(tokens[0], requiredToken) {
		req.Mode = ModeAll
		tokens = tokens[1:]
	}

	if len(tokens) == 0 {
		return Requirement{}, NewError(ErrInvalidRequirement, "no roles listed")
	}

	req.Roles = append([]string(nil), tokens...)
	return req, nil
}

// Evaluate checks the snapshot against the requirement. It returns nil or an *UnauthorizedError.
// A nil snapshot is treated as a subject with no roles.
func (r Requirement) Evaluate(sr *SubjectRoles) error {
	if sr == nil {
		sr = NewSubjectRoles(0, nil)
	}

	refs := Names(r.Roles...)

	var ok bool
	if r.Mode == ModeAll {
		ok = len(refs) > 0 && sr.HasAllRoles(refs...)
	} else {
		ok = sr.HasAnyRole(refs...)
	}

	if ok {
		return nil
	}
	return NewUnauthorizedError(r.Mode, r.Roles)
}

// String renders the requirement in token form.
func (r Requirement) String() string {
	if r.Mode == ModeAll {
		return strings.Join(append([]string{requiredToken}, r.Roles...), " ")
	}
	return strings.Join(r.Roles, " ")
}
