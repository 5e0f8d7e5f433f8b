package roles

import (
	"context"
)

// Context keys for values set by the middleware and host applications.
type contextKey string

const (
	contextKeySubjectID contextKey = "roles:subject_id"
	contextKeyRoles     contextKey = "roles:subject_roles"
	contextKeyRequestID contextKey = "roles:request_id"
)

// WithSubjectID adds the authenticated subject id to the context.
// The default middleware resolver reads it from here.
func WithSubjectID(ctx context.Context, subjectID int64) context.Context {
	return context.WithValue(ctx, contextKeySubjectID, subjectID)
}

// GetSubjectID retrieves the subject id from context.
// The second value is false if none was set.
func GetSubjectID(ctx context.Context) (int64, bool) {
	if v := ctx.Value(contextKeySubjectID); v != nil {
		if id, ok := v.(int64); ok {
			return id, true
		}
	}
	return 0, false
}

// WithRoles adds a loaded role snapshot to the context.
func WithRoles(ctx context.Context, sr *SubjectRoles) context.Context {
	return context.WithValue(ctx, contextKeyRoles, sr)
}

// RolesFromContext retrieves the snapshot stored by the middleware.
// Returns nil if not set.
func RolesFromContext(ctx context.Context) *SubjectRoles {
	if v := ctx.Value(contextKeyRoles); v != nil {
		if sr, ok := v.(*SubjectRoles); ok {
			return sr
		}
	}
	return nil
}

// WithRequestID adds a request id to the context (for log correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request id from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
