// Package store defines the persistence contract for accounts, transactions
// and the directory, plus the unit-of-work boundary the ledger engine commits
// through. Implementations live in store/postgres and store/memory.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tobenna/bankcore/internal/domain"
)

// Tx is the store as seen from inside a unit of work.
type Tx interface {
	Accounts() AccountStore
	Transactions() TransactionStore
	Directory() DirectoryStore
}

// Store adds the unit-of-work entry point. WithinTx runs fn against a
// transaction-scoped view: every write fn performs becomes visible atomically
// on return, or not at all if fn (or the commit) fails. The operation
// deadline travels in ctx.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type AccountStore interface {
	// Create assigns the surrogate id and timestamps.
	Create(ctx context.Context, acct *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	ExistsByNumber(ctx context.Context, accountNumber string) (bool, error)
	ListByHolder(ctx context.Context, holderID int64) ([]domain.Account, error)
	ListByBank(ctx context.Context, bankID int64) ([]domain.Account, error)
	// UpdateBalance persists a new balance for the account at the given
	// version, bumping the version. A stale version fails with
	// VersionConflict.
	UpdateBalance(ctx context.Context, id int64, balance domain.Money, version int64) error
	UpdateStatus(ctx context.Context, id int64, status domain.AccountStatus) error
	TotalBalanceByBank(ctx context.Context, bankID int64) (decimal.Decimal, error)
}

// TransactionFilter narrows List. Nil fields match everything.
type TransactionFilter struct {
	AccountID *int64
	Type      *domain.TransactionType
	Status    *domain.TransactionStatus
	From      *time.Time
	To        *time.Time
}

type TransactionStore interface {
	// Create assigns the surrogate id; the public transaction id must
	// already be set.
	Create(ctx context.Context, txn *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)
	// ListByAccount pages newest-first and reports the total count.
	ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.Transaction, int, error)
	List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
	ListIncomingTransfers(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	ListOutgoingTransfers(ctx context.Context, accountID int64) ([]domain.Transaction, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error)
	// UpdateStatus moves a PENDING record to a terminal status. Records in a
	// terminal status are immutable; touching one fails with
	// TransactionNotFound.
	UpdateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus) error
	TotalByAccountAndType(ctx context.Context, accountID int64, typ domain.TransactionType) (decimal.Decimal, error)
	CountByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) (int64, error)
	DailySummary(ctx context.Context, accountID int64, from, to time.Time) ([]domain.DailySummary, error)
}

type DirectoryStore interface {
	CreateBank(ctx context.Context, bank *domain.Bank) error
	GetBankByCode(ctx context.Context, code string) (*domain.Bank, error)
	CreateHolder(ctx context.Context, holder *domain.AccountHolder) error
	GetHolderByID(ctx context.Context, id int64) (*domain.AccountHolder, error)
	GetHolderByEmail(ctx context.Context, email string) (*domain.AccountHolder, error)
}
