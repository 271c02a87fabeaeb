package repository

import (
	"context"
	"errors"
	"fmt"

	"cinema-reservation/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const defaultTxAttempts = 3

// PgTransactor runs a TxFunc inside a pgx transaction and retries
// serialization failures and deadlocks.
type PgTransactor struct {
	db          database.PgxIface
	log         *zap.Logger
	maxAttempts int
}

func NewPgTransactor(db database.PgxIface, log *zap.Logger) *PgTransactor {
	return &PgTransactor{
		db:          db,
		log:         log.With(zap.String("repository", "tx")),
		maxAttempts: defaultTxAttempts,
	}
}

func (t *PgTransactor) WithTx(ctx context.Context, fn TxFunc) error {
	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err = t.runOnce(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		t.log.Warn("Transaction aborted by a concurrent transaction, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", t.maxAttempts, err)
}

func (t *PgTransactor) runOnce(ctx context.Context, fn TxFunc) (err error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				t.log.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	txRepo := newRepository(tx, t.log)
	txRepo.Tx = Joined(txRepo)

	if err = fn(txRepo); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ErrDuplicate reports a unique constraint violation (username, room name, reservation code).
var ErrDuplicate = errors.New("duplicate key")

// IsUniqueViolation reports SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsRetryable reports SQLSTATE 40001 (serialization_failure) and 40P01 (deadlock_detected).
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
