package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/store"
)

// HistoryService is the read side of the transaction log. It never mutates
// anything, so it needs neither locks nor units of work.
type HistoryService struct {
	store store.Store
}

func NewHistoryService(st store.Store) *HistoryService {
	return &HistoryService{store: st}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Statement is one page of an account's history, newest first.
type Statement struct {
	Account      *domain.Account
	Transactions []domain.Transaction
	Total        int
	Limit        int
	Offset       int
}

func (s *HistoryService) AccountStatement(ctx context.Context, accountNumber string, limit, offset int) (*Statement, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("AccountStatement: %w", err)
	}

	txns, total, err := s.store.Transactions().ListByAccount(ctx, acct.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("AccountStatement: %w", err)
	}

	return &Statement{
		Account:      acct,
		Transactions: txns,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

// RangeSummary totals an account's activity between two instants.
type RangeSummary struct {
	Account      *domain.Account
	From         time.Time
	To           time.Time
	Transactions []domain.Transaction
	TotalCredits decimal.Decimal
	TotalDebits  decimal.Decimal
	Net          decimal.Decimal
}

// StatementSummary lists everything in the range and totals the credit and
// debit sides. Net is credits minus debits.
func (s *HistoryService) StatementSummary(ctx context.Context, accountNumber string, from, to time.Time) (*RangeSummary, error) {
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("StatementSummary: %w", err)
	}

	txns, err := s.store.Transactions().List(ctx, store.TransactionFilter{
		AccountID: &acct.ID,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		return nil, fmt.Errorf("StatementSummary: %w", err)
	}

	credits, debits := decimal.Zero, decimal.Zero
	for i := range txns {
		if txns[i].Status != domain.TransactionStatusCompleted {
			continue
		}
		switch {
		case txns[i].Type.IsCreditClass():
			credits = credits.Add(txns[i].Amount.Amount())
		case txns[i].Type.IsDebitClass():
			debits = debits.Add(txns[i].Amount.Amount())
		}
	}

	return &RangeSummary{
		Account:      acct,
		From:         from,
		To:           to,
		Transactions: txns,
		TotalCredits: credits,
		TotalDebits:  debits,
		Net:          credits.Sub(debits),
	}, nil
}

func (s *HistoryService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.store.Transactions().GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return txn, nil
}

// Search filters the log by account, type, status and date range. Nil filter
// fields match everything.
func (s *HistoryService) Search(ctx context.Context, accountNumber string, filter store.TransactionFilter) ([]domain.Transaction, error) {
	if accountNumber != "" {
		acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		filter.AccountID = &acct.ID
	}

	txns, err := s.store.Transactions().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	return txns, nil
}

func (s *HistoryService) IncomingTransfers(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("IncomingTransfers: %w", err)
	}
	txns, err := s.store.Transactions().ListIncomingTransfers(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("IncomingTransfers: %w", err)
	}
	return txns, nil
}

func (s *HistoryService) OutgoingTransfers(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("OutgoingTransfers: %w", err)
	}
	txns, err := s.store.Transactions().ListOutgoingTransfers(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("OutgoingTransfers: %w", err)
	}
	return txns, nil
}

// TotalByType sums completed transactions of one type for an account.
func (s *HistoryService) TotalByType(ctx context.Context, accountNumber string, typ domain.TransactionType) (decimal.Decimal, error) {
	if !typ.IsValid() {
		return decimal.Zero, fmt.Errorf("TotalByType: unsupported transaction type %q", typ)
	}
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return decimal.Zero, fmt.Errorf("TotalByType: %w", err)
	}
	total, err := s.store.Transactions().TotalByAccountAndType(ctx, acct.ID, typ)
	if err != nil {
		return decimal.Zero, fmt.Errorf("TotalByType: %w", err)
	}
	return total, nil
}

func (s *HistoryService) CountInRange(ctx context.Context, accountNumber string, from, to time.Time) (int64, error) {
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return 0, fmt.Errorf("CountInRange: %w", err)
	}
	count, err := s.store.Transactions().CountByAccountAndDateRange(ctx, acct.ID, from, to)
	if err != nil {
		return 0, fmt.Errorf("CountInRange: %w", err)
	}
	return count, nil
}

// DailySummary aggregates an account's activity per day across the range.
func (s *HistoryService) DailySummary(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.DailySummary, error) {
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("DailySummary: %w", err)
	}
	summaries, err := s.store.Transactions().DailySummary(ctx, acct.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("DailySummary: %w", err)
	}
	return summaries, nil
}
