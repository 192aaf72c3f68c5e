package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/idgen"
	"github.com/tobenna/bankcore/internal/locking"
	"github.com/tobenna/bankcore/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	svc := NewService(st, locking.NewCoordinator(locking.DefaultStripes), idgen.New(idgen.DefaultMaxAttempts), DefaultTimeout)
	return svc, st
}

func seedAccount(t *testing.T, st *memory.Store, number, balance string) *domain.Account {
	t.Helper()
	acct := &domain.Account{
		AccountNumber: number,
		Balance:       domain.MustMoney(balance, domain.CurrencyUSD),
		Type:          domain.AccountTypeChecking,
		Status:        domain.AccountStatusActive,
		BankID:        1,
		HolderID:      1,
	}
	require.NoError(t, st.Accounts().Create(context.Background(), acct))
	return acct
}

func TestDeposit(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "100.00")

	txn, err := svc.Deposit(ctx, "GB1001", domain.MustMoney("50.00", domain.CurrencyUSD), "payroll")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.True(t, txn.BalanceBefore.Equal(domain.MustMoney("100.00", domain.CurrencyUSD)))
	assert.True(t, txn.BalanceAfter.Equal(domain.MustMoney("150.00", domain.CurrencyUSD)))

	acct, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(domain.MustMoney("150.00", domain.CurrencyUSD)))
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "100.00")

	_, err := svc.Deposit(ctx, "GB1001", domain.MustMoney("0.00", domain.CurrencyUSD), "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Deposit(ctx, "GB1001", domain.MustMoney("-5.00", domain.CurrencyUSD), "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	acct, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(domain.MustMoney("100.00", domain.CurrencyUSD)))
}

func TestDepositUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Deposit(context.Background(), "GB9999", domain.MustMoney("10.00", domain.CurrencyUSD), "")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestWithdraw(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "100.00")

	txn, err := svc.Withdraw(ctx, "GB1001", domain.MustMoney("40.00", domain.CurrencyUSD), "atm")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeWithdrawal, txn.Type)
	assert.True(t, txn.BalanceAfter.Equal(domain.MustMoney("60.00", domain.CurrencyUSD)))
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "30.00")

	_, err := svc.Withdraw(ctx, "GB1001", domain.MustMoney("30.01", domain.CurrencyUSD), "")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "GB1001", derr.AccountNumber)
	assert.True(t, derr.Available.Equal(domain.MustMoney("30.00", domain.CurrencyUSD)))

	// Balance and history untouched after the failure.
	acct, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(domain.MustMoney("30.00", domain.CurrencyUSD)))

	txns, total, err := st.Transactions().ListByAccount(ctx, acct.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, txns)
}

func TestWithdrawExactBalanceToZero(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "25.50")

	txn, err := svc.Withdraw(ctx, "GB1001", domain.MustMoney("25.50", domain.CurrencyUSD), "")
	require.NoError(t, err)
	assert.True(t, txn.BalanceAfter.IsZero())
}

func TestOperationsOnInactiveAccount(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	acct := seedAccount(t, st, "GB1001", "100.00")
	require.NoError(t, st.Accounts().UpdateStatus(ctx, acct.ID, domain.AccountStatusSuspended))

	_, err := svc.Deposit(ctx, "GB1001", domain.MustMoney("10.00", domain.CurrencyUSD), "")
	assert.ErrorIs(t, err, domain.ErrAccountNotActive)

	_, err = svc.Withdraw(ctx, "GB1001", domain.MustMoney("10.00", domain.CurrencyUSD), "")
	assert.ErrorIs(t, err, domain.ErrAccountNotActive)
}

func TestTransfer(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	from := seedAccount(t, st, "GB1001", "100.00")
	to := seedAccount(t, st, "GB1002", "20.00")

	mv, err := svc.Transfer(ctx, "GB1001", "GB1002", domain.MustMoney("35.00", domain.CurrencyUSD), "rent")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeTransferOut, mv.OutLeg.Type)
	assert.Equal(t, domain.TransactionTypeTransferIn, mv.InLeg.Type)
	assert.Equal(t, from.ID, mv.OutLeg.AccountID)
	assert.Equal(t, to.ID, mv.InLeg.AccountID)
	require.NotNil(t, mv.OutLeg.CounterAccountID)
	require.NotNil(t, mv.InLeg.CounterAccountID)
	assert.Equal(t, to.ID, *mv.OutLeg.CounterAccountID)
	assert.Equal(t, from.ID, *mv.InLeg.CounterAccountID)
	assert.NotEqual(t, mv.OutLeg.TransactionID, mv.InLeg.TransactionID)

	assert.True(t, mv.OutLeg.BalanceAfter.Equal(domain.MustMoney("65.00", domain.CurrencyUSD)))
	assert.True(t, mv.InLeg.BalanceAfter.Equal(domain.MustMoney("55.00", domain.CurrencyUSD)))

	fromAfter, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	toAfter, err := st.Accounts().GetByNumber(ctx, "GB1002")
	require.NoError(t, err)
	assert.True(t, fromAfter.Balance.Equal(domain.MustMoney("65.00", domain.CurrencyUSD)))
	assert.True(t, toAfter.Balance.Equal(domain.MustMoney("55.00", domain.CurrencyUSD)))
}

func TestTransferToSameAccount(t *testing.T) {
	svc, st := newTestService(t)
	seedAccount(t, st, "GB1001", "100.00")

	_, err := svc.Transfer(context.Background(), "GB1001", "GB1001", domain.MustMoney("10.00", domain.CurrencyUSD), "")
	assert.ErrorIs(t, err, domain.ErrSameAccountTransfer)
}

func TestTransferToUnknownAccountLeavesSourceUntouched(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "100.00")

	_, err := svc.Transfer(ctx, "GB1001", "GB9999", domain.MustMoney("10.00", domain.CurrencyUSD), "")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	acct, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(domain.MustMoney("100.00", domain.CurrencyUSD)))

	txns, _, err := st.Transactions().ListByAccount(ctx, acct.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestTransferInsufficientFundsWritesNothing(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	from := seedAccount(t, st, "GB1001", "10.00")
	seedAccount(t, st, "GB1002", "0.00")

	_, err := svc.Transfer(ctx, "GB1001", "GB1002", domain.MustMoney("10.01", domain.CurrencyUSD), "")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	txns, _, err := st.Transactions().ListByAccount(ctx, from.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestConcurrentDepositsLoseNothing(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "0.00")

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Deposit(ctx, "GB1001", domain.MustMoney("1.00", domain.CurrencyUSD), "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	acct, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(domain.MustMoney("100.00", domain.CurrencyUSD)))

	_, total, err := st.Transactions().ListByAccount(ctx, acct.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, workers, total)
}

// Opposite-direction transfers between the same pair must not deadlock, and
// the combined balance must hold regardless of interleaving.
func TestConcurrentOppositeTransfersConserveTotal(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "500.00")
	seedAccount(t, st, "GB1002", "500.00")

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := svc.Transfer(ctx, "GB1001", "GB1002", domain.MustMoney("1.00", domain.CurrencyUSD), "")
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := svc.Transfer(ctx, "GB1002", "GB1001", domain.MustMoney("2.00", domain.CurrencyUSD), "")
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	a, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	b, err := st.Accounts().GetByNumber(ctx, "GB1002")
	require.NoError(t, err)

	total, err := a.Balance.Add(b.Balance)
	require.NoError(t, err)
	assert.True(t, total.Equal(domain.MustMoney("1000.00", domain.CurrencyUSD)),
		"total drifted to %s", total)
	assert.True(t, a.Balance.Equal(domain.MustMoney("550.00", domain.CurrencyUSD)))
	assert.False(t, a.Balance.IsNegative())
	assert.False(t, b.Balance.IsNegative())
}

// Many goroutines hammering transfers across a small ring of accounts: the
// grand total must be conserved and no balance may go negative.
func TestConcurrentRingTransfersConserveTotal(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	const accounts = 5
	numbers := make([]string, accounts)
	for i := range numbers {
		numbers[i] = fmt.Sprintf("GB10%02d", i)
		seedAccount(t, st, numbers[i], "100.00")
	}

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				from := numbers[(w+i)%accounts]
				to := numbers[(w+i+1)%accounts]
				// Insufficient funds is an acceptable outcome here.
				_, err := svc.Transfer(ctx, from, to, domain.MustMoney("10.00", domain.CurrencyUSD), "")
				if err != nil {
					assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
				}
			}
		}(w)
	}
	wg.Wait()

	total := decimal.Zero
	for _, number := range numbers {
		acct, err := st.Accounts().GetByNumber(ctx, number)
		require.NoError(t, err)
		assert.False(t, acct.Balance.IsNegative(), "account %s went negative", number)
		total = total.Add(acct.Balance.Amount())
	}
	assert.True(t, total.Equal(decimal.RequireFromString("500.00")),
		"total drifted to %s", total)
}

func TestSetAccountStatus(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "100.00")

	acct, err := svc.SetAccountStatus(ctx, "GB1001", domain.AccountStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusSuspended, acct.Status)

	acct, err = svc.SetAccountStatus(ctx, "GB1001", domain.AccountStatusActive)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusActive, acct.Status)
}

func TestSetAccountStatusRejectsClosure(t *testing.T) {
	svc, st := newTestService(t)
	seedAccount(t, st, "GB1001", "100.00")

	_, err := svc.SetAccountStatus(context.Background(), "GB1001", domain.AccountStatusClosed)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestSetAccountStatusOnClosedAccount(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "0.00")

	_, err := svc.CloseAccount(ctx, "GB1001", "dormant")
	require.NoError(t, err)

	_, err = svc.SetAccountStatus(ctx, "GB1001", domain.AccountStatusActive)
	assert.ErrorIs(t, err, domain.ErrAccountNotActive)
}

func TestCloseAccount(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	acct := seedAccount(t, st, "GB1001", "0.00")

	txn, err := svc.CloseAccount(ctx, "GB1001", "customer request")
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeDebit, txn.Type)
	assert.True(t, txn.Amount.IsZero())
	assert.Equal(t, "Account closure: customer request", txn.Description)
	assert.Equal(t, acct.ID, txn.AccountID)

	after, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusClosed, after.Status)
}

func TestCloseAccountNonZeroBalance(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "0.01")

	_, err := svc.CloseAccount(ctx, "GB1001", "customer request")
	require.ErrorIs(t, err, domain.ErrNonZeroBalance)

	acct, err := st.Accounts().GetByNumber(ctx, "GB1001")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusActive, acct.Status)
}

func TestCloseAccountTwice(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "0.00")

	_, err := svc.CloseAccount(ctx, "GB1001", "first")
	require.NoError(t, err)

	_, err = svc.CloseAccount(ctx, "GB1001", "second")
	assert.ErrorIs(t, err, domain.ErrAccountNotActive)
}

func TestOperationTimeout(t *testing.T) {
	st := memory.NewStore()
	coord := locking.NewCoordinator(1)
	svc := NewService(st, coord, idgen.New(idgen.DefaultMaxAttempts), 50*time.Millisecond)
	ctx := context.Background()
	seedAccount(t, st, "GB1001", "100.00")

	// Hold the only stripe so the deposit cannot acquire it in time.
	grant, err := coord.Acquire(ctx, "blocker")
	require.NoError(t, err)
	defer grant.Release()

	_, err = svc.Deposit(ctx, "GB1001", domain.MustMoney("10.00", domain.CurrencyUSD), "")
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestCleanupPending(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	acct := seedAccount(t, st, "GB1001", "100.00")

	stale := &domain.Transaction{
		TransactionID:   "TXNSTALE",
		Amount:          domain.MustMoney("5.00", domain.CurrencyUSD),
		Type:            domain.TransactionTypeDeposit,
		Status:          domain.TransactionStatusPending,
		AccountID:       acct.ID,
		BalanceBefore:   acct.Balance,
		BalanceAfter:    acct.Balance,
		TransactionDate: time.Now().UTC().Add(-2 * time.Hour),
	}
	require.NoError(t, st.Transactions().Create(ctx, stale))

	fresh := &domain.Transaction{
		TransactionID:   "TXNFRESH",
		Amount:          domain.MustMoney("5.00", domain.CurrencyUSD),
		Type:            domain.TransactionTypeDeposit,
		Status:          domain.TransactionStatusPending,
		AccountID:       acct.ID,
		BalanceBefore:   acct.Balance,
		BalanceAfter:    acct.Balance,
		TransactionDate: time.Now().UTC(),
	}
	require.NoError(t, st.Transactions().Create(ctx, fresh))

	n, err := svc.CleanupPending(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.Transactions().GetByTransactionID(ctx, "TXNSTALE")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, got.Status)

	got, err = st.Transactions().GetByTransactionID(ctx, "TXNFRESH")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, got.Status)
}
