package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/idgen"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/store"
)

// balanceCache is the read-side cache for account balances. A nil cache is
// valid; every method then goes straight to the store.
type balanceCache interface {
	Get(ctx context.Context, accountNumber string) (domain.Money, error)
	Set(ctx context.Context, accountNumber string, balance domain.Money) error
	Invalidate(ctx context.Context, accountNumbers ...string) error
}

type AccountService struct {
	store    store.Store
	ids      *idgen.Generator
	balances balanceCache
}

func NewAccountService(st store.Store, ids *idgen.Generator, balances balanceCache) *AccountService {
	return &AccountService{store: st, ids: ids, balances: balances}
}

func (s *AccountService) CreateBank(ctx context.Context, code, name string, currency domain.Currency) (*domain.Bank, error) {
	if !currency.IsValid() {
		return nil, fmt.Errorf("CreateBank: unsupported currency %q", currency)
	}

	bank := &domain.Bank{Code: code, Name: name, Currency: currency}
	if err := s.store.Directory().CreateBank(ctx, bank); err != nil {
		return nil, fmt.Errorf("CreateBank: %w", err)
	}

	logging.FromContext(ctx).Info("bank created", "bank_code", code, "currency", currency)
	return bank, nil
}

// OnboardCustomer registers a holder. Idempotent on email: onboarding an
// already-known email returns the existing holder.
func (s *AccountService) OnboardCustomer(ctx context.Context, customerID, name, email string) (*domain.AccountHolder, error) {
	existing, err := s.store.Directory().GetHolderByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrAccountHolderNotFound) {
		return nil, fmt.Errorf("OnboardCustomer: %w", err)
	}

	holder := &domain.AccountHolder{CustomerID: customerID, Name: name, Email: email}
	if err := s.store.Directory().CreateHolder(ctx, holder); err != nil {
		return nil, fmt.Errorf("OnboardCustomer: %w", err)
	}

	logging.FromContext(ctx).Info("customer onboarded",
		"holder_id", holder.ID,
		"customer_id", customerID,
	)
	return holder, nil
}

// CreateAccount opens a zero-balance ACTIVE account at the given bank. The
// account number is the bank code followed by a drawn token, retried until
// unique.
func (s *AccountService) CreateAccount(ctx context.Context, bankCode string, holderID int64, accountType domain.AccountType) (*domain.Account, error) {
	if !accountType.IsValid() {
		return nil, fmt.Errorf("CreateAccount: unsupported account type %q", accountType)
	}

	bank, err := s.store.Directory().GetBankByCode(ctx, bankCode)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}
	if _, err := s.store.Directory().GetHolderByID(ctx, holderID); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	number, err := s.ids.Generate(ctx, bank.Code, func(ctx context.Context, id string) (bool, error) {
		return s.store.Accounts().ExistsByNumber(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	account := &domain.Account{
		AccountNumber: number,
		Balance:       domain.ZeroMoney(bank.Currency),
		Type:          accountType,
		Status:        domain.AccountStatusActive,
		BankID:        bank.ID,
		HolderID:      holderID,
	}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account created",
		"account_number", account.AccountNumber,
		"bank_code", bankCode,
		"holder_id", holderID,
		"account_type", accountType,
	)
	return account, nil
}

// GetBalance serves the balance from cache when possible, refilling it from
// the store on a miss. Cache failures degrade to a store read.
func (s *AccountService) GetBalance(ctx context.Context, accountNumber string) (domain.Money, error) {
	if s.balances != nil {
		if balance, err := s.balances.Get(ctx, accountNumber); err == nil {
			return balance, nil
		}
	}

	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return domain.Money{}, fmt.Errorf("GetBalance: %w", err)
	}

	if s.balances != nil {
		if err := s.balances.Set(ctx, accountNumber, acct.Balance); err != nil {
			logging.FromContext(ctx).Warn("balance cache set failed",
				"account_number", accountNumber,
				"error", err,
			)
		}
	}
	return acct.Balance, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error) {
	acct, err := s.store.Accounts().GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return acct, nil
}

func (s *AccountService) ListHolderAccounts(ctx context.Context, holderID int64) ([]domain.Account, error) {
	if _, err := s.store.Directory().GetHolderByID(ctx, holderID); err != nil {
		return nil, fmt.Errorf("ListHolderAccounts: %w", err)
	}
	accounts, err := s.store.Accounts().ListByHolder(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("ListHolderAccounts: %w", err)
	}
	return accounts, nil
}

// invalidateBalances drops cached balances after a mutation. Failures are
// logged, not returned; the TTL bounds staleness either way.
func (s *AccountService) invalidateBalances(ctx context.Context, accountNumbers ...string) {
	if s.balances == nil {
		return
	}
	if err := s.balances.Invalidate(ctx, accountNumbers...); err != nil {
		logging.FromContext(ctx).Warn("balance cache invalidation failed",
			"accounts", accountNumbers,
			"error", err,
		)
	}
}
