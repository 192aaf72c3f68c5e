package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/service/ledger"
	"github.com/tobenna/bankcore/internal/store"
)

// Banking is the facade callers integrate against. It composes the ledger
// engine with the account directory and the balance cache, and reports
// transfer outcomes as structured results instead of bare errors.
type Banking struct {
	engine   *ledger.Service
	accounts *AccountService
	store    store.Store
}

func NewBanking(engine *ledger.Service, accounts *AccountService, st store.Store) *Banking {
	return &Banking{engine: engine, accounts: accounts, store: st}
}

// TransferResult reports a transfer attempt. Success false means no money
// moved; ErrorMessage says why and the balance fields are zero.
type TransferResult struct {
	Success           bool                 `json:"success"`
	FromAccountNumber string               `json:"from_account_number"`
	ToAccountNumber   string               `json:"to_account_number"`
	Amount            domain.Money         `json:"amount"`
	FromBalanceBefore domain.Money         `json:"from_balance_before"`
	FromBalanceAfter  domain.Money         `json:"from_balance_after"`
	ToBalanceBefore   domain.Money         `json:"to_balance_before"`
	ToBalanceAfter    domain.Money         `json:"to_balance_after"`
	Transactions      []domain.Transaction `json:"transactions"`
	ErrorMessage      string               `json:"error_message,omitempty"`
	TransferredAt     time.Time            `json:"transferred_at"`
}

// Transfer moves amount between two accounts and always returns a result.
// Domain failures (unknown account, insufficient funds, inactive account and
// the rest) come back as an unsuccessful result; only the result is nil
// when something genuinely unexpected broke.
func (b *Banking) Transfer(ctx context.Context, fromNumber, toNumber string, amount domain.Money, description string) *TransferResult {
	result := &TransferResult{
		FromAccountNumber: fromNumber,
		ToAccountNumber:   toNumber,
		Amount:            amount,
	}

	mv, err := b.engine.Transfer(ctx, fromNumber, toNumber, amount, description)
	if err != nil {
		result.ErrorMessage = failureMessage(err)
		logging.FromContext(ctx).Warn("transfer rejected",
			"from_account", fromNumber,
			"to_account", toNumber,
			"amount", amount.String(),
			"reason", result.ErrorMessage,
		)
		return result
	}

	b.accounts.invalidateBalances(ctx, fromNumber, toNumber)

	result.Success = true
	result.FromBalanceBefore = mv.OutLeg.BalanceBefore
	result.FromBalanceAfter = mv.OutLeg.BalanceAfter
	result.ToBalanceBefore = mv.InLeg.BalanceBefore
	result.ToBalanceAfter = mv.InLeg.BalanceAfter
	result.Transactions = []domain.Transaction{*mv.OutLeg, *mv.InLeg}
	result.TransferredAt = mv.OutLeg.TransactionDate
	return result
}

func (b *Banking) Deposit(ctx context.Context, accountNumber string, amount domain.Money, description string) (*domain.Transaction, error) {
	txn, err := b.engine.Deposit(ctx, accountNumber, amount, description)
	if err != nil {
		return nil, err
	}
	b.accounts.invalidateBalances(ctx, accountNumber)
	return txn, nil
}

func (b *Banking) Withdraw(ctx context.Context, accountNumber string, amount domain.Money, description string) (*domain.Transaction, error) {
	txn, err := b.engine.Withdraw(ctx, accountNumber, amount, description)
	if err != nil {
		return nil, err
	}
	b.accounts.invalidateBalances(ctx, accountNumber)
	return txn, nil
}

func (b *Banking) SetAccountStatus(ctx context.Context, accountNumber string, status domain.AccountStatus) (*domain.Account, error) {
	return b.engine.SetAccountStatus(ctx, accountNumber, status)
}

func (b *Banking) CloseAccount(ctx context.Context, accountNumber, reason string) (*domain.Transaction, error) {
	txn, err := b.engine.CloseAccount(ctx, accountNumber, reason)
	if err != nil {
		return nil, err
	}
	b.accounts.invalidateBalances(ctx, accountNumber)
	return txn, nil
}

// OpenAccountWithDeposit opens an account and funds it in one call. The
// amount is parsed against the bank's currency; empty means no funding. The
// deposit runs through the engine, so a funding failure leaves a valid empty
// account behind rather than rolling back the opening.
func (b *Banking) OpenAccountWithDeposit(ctx context.Context, bankCode string, holderID int64, accountType domain.AccountType, initialAmount string) (*domain.Account, *domain.Transaction, error) {
	account, err := b.accounts.CreateAccount(ctx, bankCode, holderID, accountType)
	if err != nil {
		return nil, nil, fmt.Errorf("OpenAccountWithDeposit: %w", err)
	}

	if initialAmount == "" {
		return account, nil, nil
	}
	initial, err := domain.ParseMoney(initialAmount, account.Balance.Currency())
	if err != nil {
		return account, nil, fmt.Errorf("OpenAccountWithDeposit: %w", domain.NewInvalidAmount("initial deposit"))
	}
	if initial.IsZero() {
		return account, nil, nil
	}

	txn, err := b.Deposit(ctx, account.AccountNumber, initial, "Initial deposit")
	if err != nil {
		return account, nil, fmt.Errorf("OpenAccountWithDeposit: %w", err)
	}
	account.Balance = txn.BalanceAfter
	return account, txn, nil
}

// OnboardCustomer registers (or finds) the holder, opens an account at the
// bank and optionally funds it, in one facade call.
func (b *Banking) OnboardCustomer(ctx context.Context, bankCode, customerID, name, email string, accountType domain.AccountType, initialAmount string) (*domain.AccountHolder, *domain.Account, error) {
	holder, err := b.accounts.OnboardCustomer(ctx, customerID, name, email)
	if err != nil {
		return nil, nil, fmt.Errorf("OnboardCustomer: %w", err)
	}

	account, _, err := b.OpenAccountWithDeposit(ctx, bankCode, holder.ID, accountType, initialAmount)
	if err != nil {
		return holder, nil, fmt.Errorf("OnboardCustomer: %w", err)
	}
	return holder, account, nil
}

// BankSummary aggregates one bank's footprint.
type BankSummary struct {
	Bank           *domain.Bank    `json:"bank"`
	AccountCount   int             `json:"account_count"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	AverageBalance decimal.Decimal `json:"average_balance"`
}

// failureMessage strips wrapping noise off a domain error so the result
// carries the human-readable cause. Non-domain errors stay opaque.
func failureMessage(err error) string {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr.Message
	}
	return "transfer failed"
}

func (b *Banking) BankSummary(ctx context.Context, bankCode string) (*BankSummary, error) {
	bank, err := b.store.Directory().GetBankByCode(ctx, bankCode)
	if err != nil {
		return nil, fmt.Errorf("BankSummary: %w", err)
	}

	accounts, err := b.store.Accounts().ListByBank(ctx, bank.ID)
	if err != nil {
		return nil, fmt.Errorf("BankSummary: %w", err)
	}

	total, err := b.store.Accounts().TotalBalanceByBank(ctx, bank.ID)
	if err != nil {
		return nil, fmt.Errorf("BankSummary: %w", err)
	}

	average := decimal.Zero
	if len(accounts) > 0 {
		average = total.Div(decimal.NewFromInt(int64(len(accounts)))).
			Round(bank.Currency.FractionDigits())
	}

	return &BankSummary{
		Bank:           bank,
		AccountCount:   len(accounts),
		TotalBalance:   total,
		AverageBalance: average,
	}, nil
}
