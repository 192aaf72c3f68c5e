package testutil

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
)

func SeedBank(t *testing.T, db *sql.DB, code, name, currency string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO banks (code, name, currency) VALUES ($1, $2, $3) RETURNING id`,
		code, name, currency,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed bank %s: %v", code, err)
	}
	return id
}

func SeedHolder(t *testing.T, db *sql.DB, customerID, name, email string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO account_holders (customer_id, name, email) VALUES ($1, $2, $3) RETURNING id`,
		customerID, name, email,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed holder %s: %v", email, err)
	}
	return id
}

func SeedAccount(t *testing.T, db *sql.DB, number, currency, balance string, bankID, holderID int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO accounts (account_number, balance, currency, account_type, status, bank_id, holder_id)
		 VALUES ($1, $2, $3, 'CHECKING', 'ACTIVE', $4, $5) RETURNING id`,
		number, balance, currency, bankID, holderID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed account %s: %v", number, err)
	}
	return id
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID int64) decimal.Decimal {
	t.Helper()

	var raw string
	if err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&raw); err != nil {
		t.Fatalf("get account balance %d: %v", accountID, err)
	}
	return decimal.RequireFromString(raw)
}

func CountTransactions(t *testing.T, db *sql.DB, accountID int64) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count); err != nil {
		t.Fatalf("count transactions for account %d: %v", accountID, err)
	}
	return count
}
