package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tobenna/bankcore/internal/domain"
)

const accountColumns = `id, account_number, balance, currency, account_type,
	status, bank_id, holder_id, version, created_at, updated_at`

type accountStore struct {
	q querier
}

func (r *accountStore) Create(ctx context.Context, acct *domain.Account) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO accounts (
			account_number, balance, currency, account_type, status,
			bank_id, holder_id, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		RETURNING id, version, created_at, updated_at`,
		acct.AccountNumber, acct.Balance.Amount(), acct.Balance.Currency(),
		acct.Type, acct.Status, acct.BankID, acct.HolderID,
	).Scan(&acct.ID, &acct.Version, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *accountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.NewAccountNotFoundByID(id))
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *accountStore) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByNumber: %w", domain.NewAccountNotFound(accountNumber))
		}
		return nil, fmt.Errorf("GetByNumber: %w", err)
	}
	return a, nil
}

func (r *accountStore) ExistsByNumber(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`, accountNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsByNumber: %w", err)
	}
	return exists, nil
}

func (r *accountStore) ListByHolder(ctx context.Context, holderID int64) ([]domain.Account, error) {
	return r.list(ctx, "ListByHolder",
		`SELECT `+accountColumns+` FROM accounts WHERE holder_id = $1 ORDER BY created_at`, holderID)
}

func (r *accountStore) ListByBank(ctx context.Context, bankID int64) ([]domain.Account, error) {
	return r.list(ctx, "ListByBank",
		`SELECT `+accountColumns+` FROM accounts WHERE bank_id = $1 ORDER BY created_at`, bankID)
}

func (r *accountStore) list(ctx context.Context, op, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return accounts, nil
}

func (r *accountStore) UpdateBalance(ctx context.Context, id int64, balance domain.Money, version int64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3`,
		balance.Amount(), id, version,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateBalance: account %d at version %d: %w", id, version, domain.ErrVersionConflict)
	}
	return nil
}

func (r *accountStore) UpdateStatus(ctx context.Context, id int64, status domain.AccountStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET status = $1, updated_at = now() WHERE id = $2`, status, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.NewAccountNotFoundByID(id))
	}
	return nil
}

func (r *accountStore) TotalBalanceByBank(ctx context.Context, bankID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM accounts WHERE bank_id = $1`, bankID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("TotalBalanceByBank: %w", err)
	}
	return total, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var (
		a        domain.Account
		balance  decimal.Decimal
		currency string
	)
	err := s.Scan(
		&a.ID, &a.AccountNumber, &balance, &currency, &a.Type,
		&a.Status, &a.BankID, &a.HolderID, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Balance = domain.NewMoney(balance, domain.Currency(currency))
	return &a, nil
}
