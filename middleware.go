package roles

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// RoleLoader loads the role snapshot of a subject. *Service implements it.
type RoleLoader interface {
	LoadSubjectRoles(ctx context.Context, holder RoleHolder) (*SubjectRoles, error)
}

// SubjectResolver finds the subject of a request. A nil holder with a nil
// error means the request has no subject; it is evaluated as holding no roles.
type SubjectResolver func(*http.Request) (RoleHolder, error)

// Middleware provides HTTP middleware for role checking.
type Middleware struct {
	loader       RoleLoader
	resolve      SubjectResolver
	errorHandler func(http.ResponseWriter, *http.Request, error)
	logger       *zap.Logger
	metrics      *Metrics
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := roles.NewMiddleware(service,
//	    roles.WithSubjectResolver(roles.SubjectFromHeader("X-Subject-ID")),
//	)
//	router.With(mw.Require("required", "admin", "editor")).Post("/articles", publish)
func NewMiddleware(loader RoleLoader, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		loader:       loader,
		resolve:      SubjectFromContext,
		errorHandler: defaultErrorHandler,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithSubjectResolver sets how the subject is found in a request.
func WithSubjectResolver(fn SubjectResolver) MiddlewareOption {
	return func(m *Middleware) {
		m.resolve = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

// WithLogger sets the logger for denials and load failures.
func WithLogger(logger *zap.Logger) MiddlewareOption {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics counts authorization decisions.
func WithMetrics(metrics *Metrics) MiddlewareOption {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// SubjectFromContext reads the subject set with WithSubjectID.
func SubjectFromContext(r *http.Request) (RoleHolder, error) {
	if id, ok := GetSubjectID(r.Context()); ok {
		return Subject(id), nil
	}
	return nil, nil
}

// SubjectFromHeader reads a numeric subject id from a request header.
// A missing header means no subject; a malformed one is a bad request.
func SubjectFromHeader(header string) SubjectResolver {
	return func(r *http.Request) (RoleHolder, error) {
		raw := strings.TrimSpace(r.Header.Get(header))
		if raw == "" {
			return nil, nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, NewError(ErrInvalidReference, header+" must be a numeric subject id")
		}
		return Subject(id), nil
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	var unauthorized *UnauthorizedError
	if errors.As(err, &unauthorized) {
		http.Error(w, unauthorized.Message, unauthorized.Status)
		return
	}
	if errors.Is(err, ErrInvalidReference) || errors.Is(err, ErrInvalidRequirement) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// Require builds middleware from route tokens. A leading "required" demands
// every listed role; otherwise any one of them is enough.
// It panics if the tokens name no roles, like regexp.MustCompile.
//
// Example:
//
//	router.With(mw.Require("admin", "owner")).Delete("/orgs/{orgID}", deleteOrg)
//	router.With(mw.Require("required", "admin", "billing")).Post("/invoices", createInvoice)
func (m *Middleware) Require(tokens ...string) func(http.Handler) http.Handler {
	req, err := ParseRequirement(tokens...)
	if err != nil {
		panic(err)
	}
	return m.Handler(req)
}

// RequireAny creates middleware that requires at least one of the roles.
func (m *Middleware) RequireAny(roles ...string) func(http.Handler) http.Handler {
	return m.Handler(Requirement{Mode: ModeAny, Roles: roles})
}

// RequireAll creates middleware that requires every one of the roles.
func (m *Middleware) RequireAll(roles ...string) func(http.Handler) http.Handler {
	return m.Handler(Requirement{Mode: ModeAll, Roles: roles})
}

// Handler creates middleware enforcing req. On success the loaded snapshot is
// available to later handlers through RolesFromContext.
func (m *Middleware) Handler(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(req.Roles) == 0 {
				m.errorHandler(w, r, NewError(ErrInvalidRequirement, "no roles listed"))
				return
			}

			sr, err := m.load(r)
			if err != nil {
				m.logger.Error("failed to load subject roles",
					zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
				m.metrics.observeDecision(req.Mode, "error")
				m.errorHandler(w, r, err)
				return
			}

			if err := req.Evaluate(sr); err != nil {
				m.logger.Warn("role requirement not met",
					zap.Int64("subject_id", sr.SubjectID),
					zap.Stringer("mode", req.Mode),
					zap.Strings("required", req.Roles),
					zap.String("request_id", GetRequestID(r.Context())))
				m.metrics.observeDecision(req.Mode, "denied")
				m.errorHandler(w, r, err)
				return
			}

			m.metrics.observeDecision(req.Mode, "allowed")
			next.ServeHTTP(w, r.WithContext(WithRoles(r.Context(), sr)))
		})
	}
}

// LoadRoles creates middleware that puts the subject's snapshot in the context
// without enforcing anything. Use it when handlers decide for themselves.
//
// Example:
//
//	router.With(mw.LoadRoles()).Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
//	    if roles.RolesFromContext(r.Context()).Is("admin") {
//	        // Show admin features
//	    }
//	})
func (m *Middleware) LoadRoles() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr, err := m.load(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRoles(r.Context(), sr)))
		})
	}
}

// load resolves the subject and loads its roles. No subject yields an empty snapshot.
func (m *Middleware) load(r *http.Request) (*SubjectRoles, error) {
	holder, err := m.resolve(r)
	if err != nil {
		return nil, err
	}
	if holder == nil {
		return NewSubjectRoles(0, nil), nil
	}
	return m.loader.LoadSubjectRoles(r.Context(), holder)
}
