package roles

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"go.uber.org/zap"
)

// Transaction executes fn with a Service bound to a database transaction.
// If fn returns an error, the transaction is rolled back. Otherwise, it's committed.
// Inside an existing transaction a savepoint is used.
//
// Example:
//
//	err := service.Transaction(ctx, func(ctx context.Context, tx *roles.Service) error {
//	    editor, err := tx.FindOrCreate(ctx, "editor")
//	    if err != nil {
//	        return err // This will cause a rollback
//	    }
//	    return tx.AssignRoles(ctx, roles.Subject(userID), roles.Of(editor))
//	})
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Service) error) error {
	return s.TransactionWithOptions(ctx, dbkit.TxOptions{}, fn)
}

// TransactionWithOptions is Transaction with explicit isolation or read-only options.
// Options are ignored for nested transactions.
//
// Example:
//
//	err := service.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), func(ctx context.Context, tx *roles.Service) error {
//	    return tx.SyncRoles(ctx, roles.Subject(userID), roles.Names("admin", "editor")...)
//	})
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context, tx *Service) error) error {
	start := time.Now()
	pending := &pendingInvalidations{}

	run := func(tx *dbkit.Tx) error {
		return fn(ctx, s.withDB(tx, pending))
	}

	var err error
	switch db := s.db.(type) {
	case *dbkit.Tx:
		// Already in a transaction, use savepoint
		err = db.Transaction(ctx, run)
	case *dbkit.DBKit:
		err = db.TransactionWithOptions(ctx, opts, run)
	default:
		err = ErrTransactionUnsupported
	}

	duration := time.Since(start)
	s.txMonitor.recordTransaction(duration, err == nil)
	s.metrics.observeTransaction(duration, err == nil)

	if err != nil {
		s.logger.Debug("transaction rolled back", zap.Duration("duration", duration), zap.Error(err))
		return err
	}

	pending.apply(s)
	return nil
}

// ReadOnlyTransaction executes fn within a read-only transaction.
// Useful when several reads must observe the same committed state.
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx *Service) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}
