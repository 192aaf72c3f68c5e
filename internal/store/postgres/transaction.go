package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/store"
)

const transactionColumns = `id, transaction_id, amount, currency, transaction_type,
	status, description, account_id, counter_account_id, balance_before,
	balance_after, transaction_date, created_at`

type transactionStore struct {
	q querier
}

func (r *transactionStore) Create(ctx context.Context, txn *domain.Transaction) error {
	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = time.Now().UTC()
	}
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO transactions (
			transaction_id, amount, currency, transaction_type, status,
			description, account_id, counter_account_id, balance_before,
			balance_after, transaction_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		txn.TransactionID, txn.Amount.Amount(), txn.Amount.Currency(),
		txn.Type, txn.Status, txn.Description, txn.AccountID, txn.CounterAccountID,
		txn.BalanceBefore.Amount(), txn.BalanceAfter.Amount(), txn.TransactionDate,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *transactionStore) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.NewTransactionNotFound(fmt.Sprintf("#%d", id)))
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *transactionStore) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`, transactionID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByTransactionID: %w", domain.NewTransactionNotFound(transactionID))
		}
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	return t, nil
}

func (r *transactionStore) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE transaction_id = $1)`, transactionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsByTransactionID: %w", err)
	}
	return exists, nil
}

func (r *transactionStore) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: count: %w", err)
	}

	txns, err := r.list(ctx, "ListByAccount",
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY transaction_date DESC, id DESC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *transactionStore) List(ctx context.Context, f store.TransactionFilter) ([]domain.Transaction, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}
	if f.AccountID != nil {
		add("account_id = ", *f.AccountID)
	}
	if f.Type != nil {
		add("transaction_type = ", *f.Type)
	}
	if f.Status != nil {
		add("status = ", *f.Status)
	}
	if f.From != nil {
		add("transaction_date >= ", *f.From)
	}
	if f.To != nil {
		add("transaction_date <= ", *f.To)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY transaction_date DESC, id DESC`

	return r.list(ctx, "List", query, args...)
}

func (r *transactionStore) ListIncomingTransfers(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return r.list(ctx, "ListIncomingTransfers",
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 AND transaction_type = $2
		ORDER BY transaction_date DESC, id DESC`,
		accountID, domain.TransactionTypeTransferIn,
	)
}

func (r *transactionStore) ListOutgoingTransfers(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	return r.list(ctx, "ListOutgoingTransfers",
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 AND transaction_type = $2
		ORDER BY transaction_date DESC, id DESC`,
		accountID, domain.TransactionTypeTransferOut,
	)
}

func (r *transactionStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error) {
	return r.list(ctx, "ListPendingOlderThan",
		`SELECT `+transactionColumns+` FROM transactions
		WHERE status = $1 AND transaction_date < $2
		ORDER BY transaction_date`,
		domain.TransactionStatusPending, cutoff,
	)
}

func (r *transactionStore) UpdateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE transactions SET status = $1
		WHERE transaction_id = $2 AND status = $3`,
		status, transactionID, domain.TransactionStatusPending,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.NewTransactionNotFound(transactionID))
	}
	return nil
}

func (r *transactionStore) TotalByAccountAndType(ctx context.Context, accountID int64, typ domain.TransactionType) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE account_id = $1 AND transaction_type = $2 AND status = $3`,
		accountID, typ, domain.TransactionStatusCompleted,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("TotalByAccountAndType: %w", err)
	}
	return total, nil
}

func (r *transactionStore) CountByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions
		WHERE account_id = $1 AND transaction_date BETWEEN $2 AND $3`,
		accountID, from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountByAccountAndDateRange: %w", err)
	}
	return count, nil
}

func (r *transactionStore) DailySummary(ctx context.Context, accountID int64, from, to time.Time) ([]domain.DailySummary, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT date_trunc('day', transaction_date) AS day, COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE account_id = $1 AND transaction_date BETWEEN $2 AND $3
		GROUP BY day ORDER BY day`,
		accountID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("DailySummary: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DailySummary
	for rows.Next() {
		var s domain.DailySummary
		if err := rows.Scan(&s.Date, &s.Count, &s.Total); err != nil {
			return nil, fmt.Errorf("DailySummary: scan: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DailySummary: rows: %w", err)
	}
	return summaries, nil
}

func (r *transactionStore) list(ctx context.Context, op, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return txns, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var (
		t             domain.Transaction
		amount        decimal.Decimal
		currency      string
		balanceBefore decimal.Decimal
		balanceAfter  decimal.Decimal
	)
	err := s.Scan(
		&t.ID, &t.TransactionID, &amount, &currency, &t.Type,
		&t.Status, &t.Description, &t.AccountID, &t.CounterAccountID,
		&balanceBefore, &balanceAfter, &t.TransactionDate, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	cur := domain.Currency(currency)
	t.Amount = domain.NewMoney(amount, cur)
	t.BalanceBefore = domain.NewMoney(balanceBefore, cur)
	t.BalanceAfter = domain.NewMoney(balanceAfter, cur)
	return &t, nil
}
