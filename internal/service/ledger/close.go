package ledger

import (
	"context"
	"fmt"

	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/store"
)

// SetAccountStatus moves an account between ACTIVE, INACTIVE and SUSPENDED.
// CLOSED is not reachable here; closure goes through CloseAccount so the
// zero-balance check and the closure record cannot be skipped. A closed
// account cannot be reopened.
func (s *Service) SetAccountStatus(ctx context.Context, accountNumber string, status domain.AccountStatus) (*domain.Account, error) {
	if !status.IsValid() || status == domain.AccountStatusClosed {
		return nil, fmt.Errorf("SetAccountStatus: %w", domain.NewInvalidStatus(status))
	}

	var acct *domain.Account
	err := s.withOpDeadline(ctx, "status change", func(ctx context.Context) error {
		grant, err := s.locks.Acquire(ctx, accountNumber)
		if err != nil {
			return err
		}
		defer grant.Release()

		return s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			acct, err = tx.Accounts().GetByNumber(ctx, accountNumber)
			if err != nil {
				return err
			}
			if acct.Status == domain.AccountStatusClosed {
				return domain.NewAccountNotActive(accountNumber, acct.Status)
			}
			if acct.Status == status {
				return nil
			}
			if err := tx.Accounts().UpdateStatus(ctx, acct.ID, status); err != nil {
				return err
			}
			acct.Status = status
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("SetAccountStatus: %w", err)
	}

	logging.FromContext(ctx).Info("account status changed",
		"account_number", accountNumber,
		"status", status,
	)
	return acct, nil
}

// CloseAccount permanently closes an account. The balance must already be
// zero; the closure itself is recorded as a zero-amount DEBIT so the account
// history shows when and why the account ended.
func (s *Service) CloseAccount(ctx context.Context, accountNumber, reason string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := s.withOpDeadline(ctx, "account closure", func(ctx context.Context) error {
		grant, err := s.locks.Acquire(ctx, accountNumber)
		if err != nil {
			return err
		}
		defer grant.Release()

		return s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
			acct, err := tx.Accounts().GetByNumber(ctx, accountNumber)
			if err != nil {
				return err
			}
			if acct.Status == domain.AccountStatusClosed {
				return domain.NewAccountNotActive(accountNumber, acct.Status)
			}
			if !acct.Balance.IsZero() {
				return domain.NewNonZeroBalance(accountNumber, acct.Balance)
			}

			id, err := s.newTransactionID(ctx, tx)
			if err != nil {
				return err
			}

			txn = &domain.Transaction{
				TransactionID:   id,
				Amount:          domain.ZeroMoney(acct.Balance.Currency()),
				Type:            domain.TransactionTypeDebit,
				Status:          domain.TransactionStatusCompleted,
				Description:     "Account closure: " + reason,
				AccountID:       acct.ID,
				BalanceBefore:   acct.Balance,
				BalanceAfter:    acct.Balance,
				TransactionDate: s.now(),
			}
			if err := tx.Transactions().Create(ctx, txn); err != nil {
				return err
			}

			return tx.Accounts().UpdateStatus(ctx, acct.ID, domain.AccountStatusClosed)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("CloseAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account closed",
		"account_number", accountNumber,
		"transaction_id", txn.TransactionID,
		"reason", reason,
	)
	return txn, nil
}
