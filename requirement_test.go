package roles

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		mode   Mode
		roles  []string
	}{
		{"any", []string{"admin", "editor"}, ModeAny, []string{"admin", "editor"}},
		{"single", []string{"admin"}, ModeAny, []string{"admin"}},
		{"required", []string{"required", "admin", "editor"}, ModeAll, []string{"admin", "editor"}},
		{"required upper case", []string{"REQUIRED", "admin"}, ModeAll, []string{"admin"}},
		{"required mixed case", []string{"Required", "a", "b"}, ModeAll, []string{"a", "b"}},
		{"required only leading", []string{"admin", "required"}, ModeAny, []string{"admin", "required"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequirement(tt.tokens...)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, req.Mode)
			assert.Equal(t, tt.roles, req.Roles)
		})
	}
}

func TestParseRequirementRejectsEmpty(t *testing.T) {
	_, err := ParseRequirement()
	assert.ErrorIs(t, err, ErrInvalidRequirement)

	_, err = ParseRequirement("required")
	assert.ErrorIs(t, err, ErrInvalidRequirement)
}

func TestRequirementEvaluate(t *testing.T) {
	sr := NewSubjectRoles(1, []Role{{ID: 1, Name: "admin"}, {ID: 2, Name: "editor"}})

	tests := []struct {
		name    string
		tokens  []string
		allowed bool
		message string
	}{
		{"any satisfied", []string{"viewer", "admin"}, true, ""},
		{"any denied", []string{"viewer", "owner"}, false, "User should have either `viewer` or `owner` role to proceed."},
		{"all satisfied", []string{"required", "admin", "editor"}, true, ""},
		{"all denied", []string{"required", "admin", "viewer"}, false, "User should have both `admin` and `viewer` roles to proceed."},
		{"single denied", []string{"viewer"}, false, "User should have a `viewer` role to proceed."},
		{"single all denied", []string{"required", "viewer"}, false, "User should have a `viewer` role to proceed."},
		{"names are exact", []string{"Admin"}, false, "User should have a `Admin` role to proceed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequirement(tt.tokens...)
			require.NoError(t, err)

			err = req.Evaluate(sr)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}

			var denied *UnauthorizedError
			require.True(t, errors.As(err, &denied))
			assert.Equal(t, tt.message, denied.Message)
			assert.Equal(t, 403, denied.Status)
		})
	}
}

func TestRequirementEvaluateWithoutSubject(t *testing.T) {
	req, err := ParseRequirement("admin")
	require.NoError(t, err)

	err = req.Evaluate(nil)
	assert.True(t, IsUnauthorized(err))
}

func TestRequirementString(t *testing.T) {
	req, _ := ParseRequirement("REQUIRED", "a", "b")
	assert.Equal(t, "required a b", req.String())

	req, _ = ParseRequirement("a", "b")
	assert.Equal(t, "a b", req.String())

	assert.Equal(t, "all", ModeAll.String())
	assert.Equal(t, "any", ModeAny.String())
}
