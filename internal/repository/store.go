package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

// Store aggregates the per-entity repositories into one domain.LedgerStore.
// Built over *sql.DB it is the process-wide store; WithTx rebinds every
// repository to a single transaction so the committer's writes are atomic.
type Store struct {
	db *sql.DB

	*ClientRepository
	*BillingRepository
	*AmortizationRepository
	*ApplicationRepository
	*ClientCreditRepository
}

var _ domain.LedgerStore = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return newStore(db, db)
}

func newStore(db *sql.DB, q DBTX) *Store {
	return &Store{
		db:                     db,
		ClientRepository:       NewClientRepository(q),
		BillingRepository:      NewBillingRepository(q),
		AmortizationRepository: NewAmortizationRepository(q),
		ApplicationRepository:  NewApplicationRepository(q),
		ClientCreditRepository: NewClientCreditRepository(q),
	}
}

// WithTx runs fn against a transaction-bound Store. Any error from fn rolls
// the transaction back; otherwise it commits. Nested calls reuse the
// already-open transaction.
func (s *Store) WithTx(ctx context.Context, fn func(domain.LedgerStore) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := newStore(nil, tx)

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("tx rollback error: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
