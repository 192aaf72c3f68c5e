package ledger

import (
	"context"
	"fmt"

	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/store"
)

// Deposit credits an account and records the movement. The returned
// transaction carries the balance before and after the credit.
func (s *Service) Deposit(ctx context.Context, accountNumber string, amount domain.Money, description string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Deposit: %w", domain.NewInvalidAmount("deposit"))
	}

	var txn *domain.Transaction
	err := s.withOpDeadline(ctx, "deposit", func(ctx context.Context) error {
		grant, err := s.locks.Acquire(ctx, accountNumber)
		if err != nil {
			return err
		}
		defer grant.Release()

		txn, err = s.applySingle(ctx, accountNumber, amount, domain.TransactionTypeDeposit, description)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	logging.FromContext(ctx).Info("deposit completed",
		"transaction_id", txn.TransactionID,
		"account_number", accountNumber,
		"amount", amount.String(),
	)
	return txn, nil
}

// Withdraw debits an account, rejecting overdrafts, and records the movement.
func (s *Service) Withdraw(ctx context.Context, accountNumber string, amount domain.Money, description string) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Withdraw: %w", domain.NewInvalidAmount("withdrawal"))
	}

	var txn *domain.Transaction
	err := s.withOpDeadline(ctx, "withdrawal", func(ctx context.Context) error {
		grant, err := s.locks.Acquire(ctx, accountNumber)
		if err != nil {
			return err
		}
		defer grant.Release()

		txn, err = s.applySingle(ctx, accountNumber, amount, domain.TransactionTypeWithdrawal, description)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	logging.FromContext(ctx).Info("withdrawal completed",
		"transaction_id", txn.TransactionID,
		"account_number", accountNumber,
		"amount", amount.String(),
	)
	return txn, nil
}

// applySingle performs a one-account balance change inside a unit of work.
// The caller must already hold the account's lock.
func (s *Service) applySingle(ctx context.Context, accountNumber string, amount domain.Money, typ domain.TransactionType, description string) (*domain.Transaction, error) {
	var txn *domain.Transaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		acct, err := tx.Accounts().GetByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if err := verifyActive(acct); err != nil {
			return err
		}

		before := acct.Balance
		if typ.IsCreditClass() {
			err = acct.Credit(amount)
		} else {
			err = acct.Debit(amount)
		}
		if err != nil {
			return err
		}

		id, err := s.newTransactionID(ctx, tx)
		if err != nil {
			return err
		}

		txn = &domain.Transaction{
			TransactionID:   id,
			Amount:          amount,
			Type:            typ,
			Status:          domain.TransactionStatusCompleted,
			Description:     description,
			AccountID:       acct.ID,
			BalanceBefore:   before,
			BalanceAfter:    acct.Balance,
			TransactionDate: s.now(),
		}
		if err := tx.Transactions().Create(ctx, txn); err != nil {
			return err
		}

		return tx.Accounts().UpdateBalance(ctx, acct.ID, acct.Balance, acct.Version)
	})
	if err != nil {
		return nil, fmt.Errorf("applySingle: %w", err)
	}
	return txn, nil
}
