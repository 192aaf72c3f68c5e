package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypeCredit      TransactionType = "CREDIT"
	TransactionTypeDebit       TransactionType = "DEBIT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeCredit,
		TransactionTypeDebit, TransactionTypeTransferIn, TransactionTypeTransferOut:
		return true
	}
	return false
}

// IsCreditClass reports whether the type increases the owning account's
// balance.
func (t TransactionType) IsCreditClass() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeCredit, TransactionTypeTransferIn:
		return true
	}
	return false
}

func (t TransactionType) IsDebitClass() bool {
	switch t {
	case TransactionTypeWithdrawal, TransactionTypeDebit, TransactionTypeTransferOut:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Transaction is one balance-affecting event. Records are append-only: once
// the status is terminal nothing about them changes.
type Transaction struct {
	ID               int64
	TransactionID    string
	Amount           Money
	Type             TransactionType
	Status           TransactionStatus
	Description      string
	AccountID        int64
	CounterAccountID *int64
	BalanceBefore    Money
	BalanceAfter     Money
	TransactionDate  time.Time
	CreatedAt        time.Time
}

// DailySummary aggregates one day of an account's activity.
type DailySummary struct {
	Date  time.Time
	Count int64
	Total decimal.Decimal
}
