// Package ledger is the balance engine. Every operation that moves money
// runs here: it takes the lock coordinator's grant for the accounts it
// touches, applies the balance change and the transaction record inside one
// store unit of work, and enforces the per-operation deadline.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/idgen"
	"github.com/tobenna/bankcore/internal/locking"
	"github.com/tobenna/bankcore/internal/store"
)

// DefaultTimeout bounds a single balance operation end to end, including
// lock acquisition.
const DefaultTimeout = 30 * time.Second

type Service struct {
	store   store.Store
	locks   *locking.Coordinator
	ids     *idgen.Generator
	timeout time.Duration
	now     func() time.Time
}

func NewService(st store.Store, locks *locking.Coordinator, ids *idgen.Generator, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		store:   st,
		locks:   locks,
		ids:     ids,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// withOpDeadline runs fn under the service timeout and reports expiry as a
// Timeout domain error named after the operation.
func (s *Service) withOpDeadline(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTimeout(op)
	}
	return err
}

// newTransactionID draws a fresh public transaction id, checking candidates
// against the records visible inside the current unit of work.
func (s *Service) newTransactionID(ctx context.Context, tx store.Tx) (string, error) {
	return s.ids.Generate(ctx, idgen.TransactionPrefix, func(ctx context.Context, id string) (bool, error) {
		return tx.Transactions().ExistsByTransactionID(ctx, id)
	})
}

// GetAccount looks an account up by its public number.
func (s *Service) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return acct, nil
}

// GetTransaction looks a transaction up by its public id.
func (s *Service) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.store.Transactions().GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return txn, nil
}

func verifyActive(acct *domain.Account) error {
	if !acct.IsActive() {
		return domain.NewAccountNotActive(acct.AccountNumber, acct.Status)
	}
	return nil
}
