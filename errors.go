package roles

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for role operations.
var (
	// ErrRoleNotFound is returned by strict lookups when no role matches.
	ErrRoleNotFound = errors.New("roles: role not found")

	// ErrRoleAlreadyExists is returned by Create when a requested name is taken.
	ErrRoleAlreadyExists = errors.New("roles: role already exists")

	// ErrUnauthorized is returned when a subject does not satisfy a role requirement.
	ErrUnauthorized = errors.New("roles: unauthorized")

	// ErrInvalidRoleName is returned for empty or repeated role names.
	ErrInvalidRoleName = errors.New("roles: invalid role name")

	// ErrInvalidReference is returned when a RoleRef cannot be used for the operation.
	ErrInvalidReference = errors.New("roles: invalid role reference")

	// ErrInvalidRequirement is returned when a middleware requirement lists no roles.
	ErrInvalidRequirement = errors.New("roles: invalid role requirement")

	// ErrSubjectNotFound is returned when an assignment references a missing subject.
	ErrSubjectNotFound = errors.New("roles: subject not found")

	// ErrInvalidConfig is returned when table or column names are unusable.
	ErrInvalidConfig = errors.New("roles: invalid configuration")

	// ErrTransactionUnsupported is returned when the database handle cannot open transactions.
	ErrTransactionUnsupported = errors.New("roles: transaction support requires a dbkit.DBKit or dbkit.Tx instance")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("roles: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err       error    // Underlying sentinel error
	Message   string   // Additional context
	Names     []string // Role names involved (if applicable)
	RoleID    int64    // Role id involved (if applicable)
	SubjectID int64    // Subject involved (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithNames adds role names to the error.
func (e *Error) WithNames(names ...string) *Error {
	e.Names = append(e.Names, names...)
	return e
}

// WithRoleID adds a role id to the error.
func (e *Error) WithRoleID(id int64) *Error {
	e.RoleID = id
	return e
}

// WithSubject adds subject information to the error.
func (e *Error) WithSubject(subjectID int64) *Error {
	e.SubjectID = subjectID
	return e
}

func roleNotFoundByName(name string) *Error {
	return NewError(ErrRoleNotFound, fmt.Sprintf("The role `%s` does not exists.", name)).WithNames(name)
}

func roleNotFoundByID(id int64) *Error {
	return NewError(ErrRoleNotFound, fmt.Sprintf("There is no role with id `%d`.", id)).WithRoleID(id)
}

func roleAlreadyExists(names []string) *Error {
	return NewError(ErrRoleAlreadyExists, fmt.Sprintf("The roles `%s` already exists.", strings.Join(names, ", "))).
		WithNames(names...)
}

// IsRoleNotFound checks if an error is due to a missing role.
func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}

// IsRoleAlreadyExists checks if an error is due to a name collision on create.
func IsRoleAlreadyExists(err error) bool {
	return errors.Is(err, ErrRoleAlreadyExists)
}

// IsUnauthorized checks if an error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// UnauthorizedError is returned when a subject fails a role requirement.
// It carries an HTTP status, the user facing message and the roles that were required.
type UnauthorizedError struct {
	Status        int
	Message       string
	Mode          Mode
	RequiredRoles []string
}

// NewUnauthorizedError builds the rejection for a requirement in the given mode.
func NewUnauthorizedError(mode Mode, required []string) *UnauthorizedError {
	return &UnauthorizedError{
		Status:        http.StatusForbidden,
		Message:       unauthorizedMessage(mode, required),
		Mode:          mode,
		RequiredRoles: append([]string(nil), required...),
	}
}

// Error implements the error interface.
func (e *UnauthorizedError) Error() string {
	return e.Message
}

// Is reports true for ErrUnauthorized.
func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// unauthorizedMessage composes the rejection message. Callers parse this text, keep it stable.
func unauthorizedMessage(mode Mode, required []string) string {
	quoted := make([]string, len(required))
	for i, r := range required {
		quoted[i] = "`" + r + "`"
	}

	if len(quoted) == 1 {
		return fmt.Sprintf("User should have a %s role to proceed.", quoted[0])
	}

	if mode == ModeAll {
		return "User should have both " + strings.Join(quoted, " and ") + " roles to proceed."
	}
	return "User should have either " + strings.Join(quoted, " or ") + " role to proceed."
}
