package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tobenna/bankcore/internal/domain"
)

type directoryStore struct {
	q querier
}

func (r *directoryStore) CreateBank(ctx context.Context, bank *domain.Bank) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO banks (code, name, currency) VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		bank.Code, bank.Name, bank.Currency,
	).Scan(&bank.ID, &bank.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateBank: %w", err)
	}
	return nil
}

func (r *directoryStore) GetBankByCode(ctx context.Context, code string) (*domain.Bank, error) {
	var b domain.Bank
	err := r.q.QueryRowContext(ctx,
		`SELECT id, code, name, currency, created_at FROM banks WHERE code = $1`, code,
	).Scan(&b.ID, &b.Code, &b.Name, &b.Currency, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetBankByCode: %w", domain.NewBankNotFound(code))
		}
		return nil, fmt.Errorf("GetBankByCode: %w", err)
	}
	return &b, nil
}

func (r *directoryStore) CreateHolder(ctx context.Context, holder *domain.AccountHolder) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO account_holders (customer_id, name, email) VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		holder.CustomerID, holder.Name, holder.Email,
	).Scan(&holder.ID, &holder.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreateHolder: %w", err)
	}
	return nil
}

func (r *directoryStore) GetHolderByID(ctx context.Context, id int64) (*domain.AccountHolder, error) {
	var h domain.AccountHolder
	err := r.q.QueryRowContext(ctx,
		`SELECT id, customer_id, name, email, created_at FROM account_holders WHERE id = $1`, id,
	).Scan(&h.ID, &h.CustomerID, &h.Name, &h.Email, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetHolderByID: %w", domain.NewAccountHolderNotFound(id))
		}
		return nil, fmt.Errorf("GetHolderByID: %w", err)
	}
	return &h, nil
}

func (r *directoryStore) GetHolderByEmail(ctx context.Context, email string) (*domain.AccountHolder, error) {
	var h domain.AccountHolder
	err := r.q.QueryRowContext(ctx,
		`SELECT id, customer_id, name, email, created_at FROM account_holders WHERE email = $1`, email,
	).Scan(&h.ID, &h.CustomerID, &h.Name, &h.Email, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetHolderByEmail: %w", domain.ErrAccountHolderNotFound)
		}
		return nil, fmt.Errorf("GetHolderByEmail: %w", err)
	}
	return &h, nil
}
