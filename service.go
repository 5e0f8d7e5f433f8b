package roles

import (
	"sync"
	"time"

	"github.com/fernandezvara/dbkit"
	"go.uber.org/zap"
)

// Service manages roles, their assignments to subjects and role checks.
// It integrates with the database through dbkit.
//
// Error Handling:
// Database failures are wrapped with dbkit's chainable error helpers so the
// operation name and the original driver error survive. Domain failures use the
// sentinels in errors.go and can be tested with errors.Is:
//
//	err := service.AssignRoles(ctx, roles.Subject(42), roles.Name("editor"))
//	if roles.IsRoleNotFound(err) {
//	    // "editor" was never created
//	}
type Service struct {
	db        dbkit.IDB
	cfg       Config
	logger    *zap.Logger
	metrics   *Metrics
	cache     *roleCache
	txMonitor *transactionMonitor

	// set on Services bound to a transaction; cache entries are dropped after commit
	pending *pendingInvalidations
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used for mutations and lookups.
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceMetrics records transaction and cache metrics.
func WithServiceMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRoleCache keeps loaded subject roles for ttl. Assign, revoke, sync and
// role deletion through this Service invalidate the cache; writes made by
// other processes are only seen after ttl.
func WithRoleCache(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cache = newRoleCache(ttl)
		}
	}
}

// NewService creates a new Service. The config is resolved once here.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service, err := roles.NewService(db, roles.DefaultConfig())
func NewService(db dbkit.IDB, cfg Config, opts ...ServiceOption) (*Service, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	s := &Service{
		db:        db,
		cfg:       resolved,
		logger:    zap.NewNop(),
		txMonitor: newTransactionMonitor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("roles")

	return s, nil
}

// Config returns the resolved configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// withDB returns a copy of the Service bound to db, sharing cache, metrics and monitor.
func (s *Service) withDB(db dbkit.IDB, pending *pendingInvalidations) *Service {
	cp := *s
	cp.db = db
	cp.pending = pending
	return &cp
}

// invalidate drops a subject's cached roles, or defers it until commit inside a transaction.
func (s *Service) invalidate(subjectID int64) {
	if s.cache == nil {
		return
	}
	if s.pending != nil {
		s.pending.add(subjectID)
		return
	}
	s.cache.invalidate(subjectID)
}

func (s *Service) invalidateAll() {
	if s.cache == nil {
		return
	}
	if s.pending != nil {
		s.pending.addAll()
		return
	}
	s.cache.flush()
}

type pendingInvalidations struct {
	mu       sync.Mutex
	subjects []int64
	all      bool
}

func (p *pendingInvalidations) add(subjectID int64) {
	p.mu.Lock()
	p.subjects = append(p.subjects, subjectID)
	p.mu.Unlock()
}

func (p *pendingInvalidations) addAll() {
	p.mu.Lock()
	p.all = true
	p.mu.Unlock()
}

// apply runs the deferred invalidations against the parent Service.
func (p *pendingInvalidations) apply(s *Service) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.all {
		s.invalidateAll()
		return
	}
	for _, id := range p.subjects {
		s.invalidate(id)
	}
}
