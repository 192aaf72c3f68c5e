package domain

import "time"

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeSavings, AccountTypeChecking:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusInactive  AccountStatus = "INACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
	AccountStatusClosed    AccountStatus = "CLOSED"
)

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusSuspended, AccountStatusClosed:
		return true
	}
	return false
}

// Account is a plain data holder. It carries no synchronization of its own;
// callers obtain exclusive access through the lock coordinator before touching
// the balance, and only the ledger engine mutates it.
type Account struct {
	ID            int64
	AccountNumber string
	Balance       Money
	Type          AccountType
	Status        AccountStatus
	BankID        int64
	HolderID      int64
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// Credit increases the balance. The caller must hold this account's lock.
func (a *Account) Credit(amount Money) error {
	if !amount.IsPositive() {
		return NewInvalidAmount("credit")
	}
	balance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	return nil
}

// Debit decreases the balance, rejecting overdrafts. The caller must hold
// this account's lock.
func (a *Account) Debit(amount Money) error {
	if !amount.IsPositive() {
		return NewInvalidAmount("debit")
	}
	short, err := a.Balance.LessThan(amount)
	if err != nil {
		return err
	}
	if short {
		return NewInsufficientFunds(a.AccountNumber, amount, a.Balance)
	}
	balance, err := a.Balance.Sub(amount)
	if err != nil {
		return err
	}
	a.Balance = balance
	return nil
}
