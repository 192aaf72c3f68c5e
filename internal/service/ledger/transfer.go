package ledger

import (
	"context"
	"fmt"

	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/store"
)

// Movement is the pair of records one transfer produces. OutLeg belongs to
// the source account, InLeg to the destination; both carry that account's
// balance before and after.
type Movement struct {
	OutLeg *domain.Transaction
	InLeg  *domain.Transaction
}

// Transfer moves amount between two accounts atomically. Both accounts are
// locked through a single grant and both legs commit in one unit of work, so
// no observer ever sees the debit without the credit.
func (s *Service) Transfer(ctx context.Context, fromNumber, toNumber string, amount domain.Money, description string) (*Movement, error) {
	if fromNumber == toNumber {
		return nil, fmt.Errorf("Transfer: %w", domain.NewSameAccountTransfer(fromNumber))
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Transfer: %w", domain.NewInvalidAmount("transfer"))
	}

	var mv *Movement
	err := s.withOpDeadline(ctx, "transfer", func(ctx context.Context) error {
		grant, err := s.locks.Acquire(ctx, fromNumber, toNumber)
		if err != nil {
			return err
		}
		defer grant.Release()

		mv, err = s.executeTransfer(ctx, fromNumber, toNumber, amount, description)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	logging.FromContext(ctx).Info("transfer completed",
		"out_transaction_id", mv.OutLeg.TransactionID,
		"in_transaction_id", mv.InLeg.TransactionID,
		"from_account", fromNumber,
		"to_account", toNumber,
		"amount", amount.String(),
	)
	return mv, nil
}

func (s *Service) executeTransfer(ctx context.Context, fromNumber, toNumber string, amount domain.Money, description string) (*Movement, error) {
	var mv *Movement
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		from, err := tx.Accounts().GetByNumber(ctx, fromNumber)
		if err != nil {
			return err
		}
		to, err := tx.Accounts().GetByNumber(ctx, toNumber)
		if err != nil {
			return err
		}

		if err := verifyActive(from); err != nil {
			return err
		}
		if err := verifyActive(to); err != nil {
			return err
		}

		fromBefore, toBefore := from.Balance, to.Balance
		if err := from.Debit(amount); err != nil {
			return err
		}
		if err := to.Credit(amount); err != nil {
			return err
		}

		outID, err := s.newTransactionID(ctx, tx)
		if err != nil {
			return err
		}
		inID, err := s.newTransactionID(ctx, tx)
		if err != nil {
			return err
		}

		now := s.now()
		out := &domain.Transaction{
			TransactionID:    outID,
			Amount:           amount,
			Type:             domain.TransactionTypeTransferOut,
			Status:           domain.TransactionStatusCompleted,
			Description:      description,
			AccountID:        from.ID,
			CounterAccountID: &to.ID,
			BalanceBefore:    fromBefore,
			BalanceAfter:     from.Balance,
			TransactionDate:  now,
		}
		in := &domain.Transaction{
			TransactionID:    inID,
			Amount:           amount,
			Type:             domain.TransactionTypeTransferIn,
			Status:           domain.TransactionStatusCompleted,
			Description:      description,
			AccountID:        to.ID,
			CounterAccountID: &from.ID,
			BalanceBefore:    toBefore,
			BalanceAfter:     to.Balance,
			TransactionDate:  now,
		}

		if err := tx.Transactions().Create(ctx, out); err != nil {
			return err
		}
		if err := tx.Transactions().Create(ctx, in); err != nil {
			return err
		}

		if err := tx.Accounts().UpdateBalance(ctx, from.ID, from.Balance, from.Version); err != nil {
			return err
		}
		if err := tx.Accounts().UpdateBalance(ctx, to.ID, to.Balance, to.Version); err != nil {
			return err
		}

		mv = &Movement{OutLeg: out, InLeg: in}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("executeTransfer: %w", err)
	}
	return mv, nil
}
