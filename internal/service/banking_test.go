package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tobenna/bankcore/internal/cache"
	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/idgen"
	"github.com/tobenna/bankcore/internal/locking"
	"github.com/tobenna/bankcore/internal/service/ledger"
	"github.com/tobenna/bankcore/internal/store/memory"
)

type fixture struct {
	banking  *Banking
	accounts *AccountService
	history  *HistoryService
	store    *memory.Store
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore()
	ids := idgen.New(idgen.DefaultMaxAttempts)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	balances := cache.NewBalanceCache(client, time.Minute)

	engine := ledger.NewService(st, locking.NewCoordinator(locking.DefaultStripes), ids, ledger.DefaultTimeout)
	accounts := NewAccountService(st, ids, balances)
	return &fixture{
		banking:  NewBanking(engine, accounts, st),
		accounts: accounts,
		history:  NewHistoryService(st),
		store:    st,
		redis:    mr,
	}
}

func (f *fixture) seedBankAndHolder(t *testing.T) (*domain.Bank, *domain.AccountHolder) {
	t.Helper()
	ctx := context.Background()
	bank, err := f.accounts.CreateBank(ctx, "GB82", "Union Trust", domain.CurrencyUSD)
	require.NoError(t, err)
	holder, err := f.accounts.OnboardCustomer(ctx, "CUST-1", "Ada Obi", "ada@example.com")
	require.NoError(t, err)
	return bank, holder
}

func (f *fixture) seedFundedAccount(t *testing.T, holderID int64, balance string) *domain.Account {
	t.Helper()
	ctx := context.Background()
	acct, _, err := f.banking.OpenAccountWithDeposit(ctx, "GB82", holderID, domain.AccountTypeChecking, balance)
	require.NoError(t, err)
	return acct
}

func TestOnboardCustomerIdempotentOnEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.accounts.OnboardCustomer(ctx, "CUST-1", "Ada Obi", "ada@example.com")
	require.NoError(t, err)

	second, err := f.accounts.OnboardCustomer(ctx, "CUST-2", "Someone Else", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "CUST-1", second.CustomerID)
}

func TestCreateAccountNumberCarriesBankCode(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)

	acct, err := f.accounts.CreateAccount(context.Background(), "GB82", holder.ID, domain.AccountTypeSavings)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(acct.AccountNumber, "GB82"))
	assert.True(t, acct.Balance.IsZero())
	assert.Equal(t, domain.AccountStatusActive, acct.Status)
	assert.Equal(t, domain.CurrencyUSD, acct.Balance.Currency())
}

func TestCreateAccountUnknownBank(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)

	_, err := f.accounts.CreateAccount(context.Background(), "XX00", holder.ID, domain.AccountTypeSavings)
	assert.ErrorIs(t, err, domain.ErrBankNotFound)
}

func TestOpenAccountWithDeposit(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()

	acct, txn, err := f.banking.OpenAccountWithDeposit(ctx, "GB82", holder.ID, domain.AccountTypeChecking, "250.00")
	require.NoError(t, err)
	require.NotNil(t, txn)

	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	assert.Equal(t, "Initial deposit", txn.Description)
	assert.True(t, acct.Balance.Equal(domain.MustMoney("250.00", domain.CurrencyUSD)))
}

func TestTransferResultSuccess(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()
	from := f.seedFundedAccount(t, holder.ID, "100.00")
	to := f.seedFundedAccount(t, holder.ID, "50.00")

	result := f.banking.Transfer(ctx, from.AccountNumber, to.AccountNumber,
		domain.MustMoney("30.00", domain.CurrencyUSD), "gift")

	require.True(t, result.Success)
	assert.Empty(t, result.ErrorMessage)
	assert.Equal(t, from.AccountNumber, result.FromAccountNumber)
	assert.Equal(t, to.AccountNumber, result.ToAccountNumber)
	assert.True(t, result.FromBalanceBefore.Equal(domain.MustMoney("100.00", domain.CurrencyUSD)))
	assert.True(t, result.FromBalanceAfter.Equal(domain.MustMoney("70.00", domain.CurrencyUSD)))
	assert.True(t, result.ToBalanceBefore.Equal(domain.MustMoney("50.00", domain.CurrencyUSD)))
	assert.True(t, result.ToBalanceAfter.Equal(domain.MustMoney("80.00", domain.CurrencyUSD)))
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, domain.TransactionTypeTransferOut, result.Transactions[0].Type)
	assert.Equal(t, domain.TransactionTypeTransferIn, result.Transactions[1].Type)
	assert.False(t, result.TransferredAt.IsZero())
}

func TestTransferResultInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()
	from := f.seedFundedAccount(t, holder.ID, "10.00")
	to := f.seedFundedAccount(t, holder.ID, "0.00")

	result := f.banking.Transfer(ctx, from.AccountNumber, to.AccountNumber,
		domain.MustMoney("10.01", domain.CurrencyUSD), "")

	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "insufficient funds")
	assert.Empty(t, result.Transactions)
	assert.True(t, result.FromBalanceAfter.IsZero())
}

func TestTransferResultUnknownAccount(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	from := f.seedFundedAccount(t, holder.ID, "10.00")

	result := f.banking.Transfer(context.Background(), from.AccountNumber, "GB829999",
		domain.MustMoney("5.00", domain.CurrencyUSD), "")

	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "account not found")
}

func TestGetBalanceUsesCacheAndInvalidation(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()
	acct := f.seedFundedAccount(t, holder.ID, "100.00")

	// First read fills the cache.
	balance, err := f.accounts.GetBalance(ctx, acct.AccountNumber)
	require.NoError(t, err)
	assert.True(t, balance.Equal(domain.MustMoney("100.00", domain.CurrencyUSD)))
	assert.True(t, f.redis.Exists("balance:"+acct.AccountNumber))

	// A mutation through the facade drops the entry.
	_, err = f.banking.Deposit(ctx, acct.AccountNumber, domain.MustMoney("25.00", domain.CurrencyUSD), "")
	require.NoError(t, err)
	assert.False(t, f.redis.Exists("balance:"+acct.AccountNumber))

	balance, err = f.accounts.GetBalance(ctx, acct.AccountNumber)
	require.NoError(t, err)
	assert.True(t, balance.Equal(domain.MustMoney("125.00", domain.CurrencyUSD)))
}

func TestAccountStatementPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()
	acct := f.seedFundedAccount(t, holder.ID, "100.00")

	for i := 0; i < 5; i++ {
		_, err := f.banking.Deposit(ctx, acct.AccountNumber, domain.MustMoney("1.00", domain.CurrencyUSD), "drip")
		require.NoError(t, err)
	}

	page, err := f.history.AccountStatement(ctx, acct.AccountNumber, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total) // initial deposit plus five drips
	require.Len(t, page.Transactions, 3)
	assert.True(t, page.Transactions[0].BalanceAfter.Equal(domain.MustMoney("105.00", domain.CurrencyUSD)))

	page, err = f.history.AccountStatement(ctx, acct.AccountNumber, 3, 3)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 3)
	assert.Equal(t, "Initial deposit", page.Transactions[2].Description)
}

func TestIncomingAndOutgoingTransfers(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()
	a := f.seedFundedAccount(t, holder.ID, "100.00")
	b := f.seedFundedAccount(t, holder.ID, "100.00")

	require.True(t, f.banking.Transfer(ctx, a.AccountNumber, b.AccountNumber,
		domain.MustMoney("10.00", domain.CurrencyUSD), "").Success)
	require.True(t, f.banking.Transfer(ctx, b.AccountNumber, a.AccountNumber,
		domain.MustMoney("4.00", domain.CurrencyUSD), "").Success)

	out, err := f.history.OutgoingTransfers(ctx, a.AccountNumber)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.TransactionTypeTransferOut, out[0].Type)

	in, err := f.history.IncomingTransfers(ctx, a.AccountNumber)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.True(t, in[0].Amount.Equal(domain.MustMoney("4.00", domain.CurrencyUSD)))
}

func TestTotalByType(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()
	acct := f.seedFundedAccount(t, holder.ID, "100.00")

	_, err := f.banking.Deposit(ctx, acct.AccountNumber, domain.MustMoney("20.00", domain.CurrencyUSD), "")
	require.NoError(t, err)
	_, err = f.banking.Withdraw(ctx, acct.AccountNumber, domain.MustMoney("5.00", domain.CurrencyUSD), "")
	require.NoError(t, err)

	deposits, err := f.history.TotalByType(ctx, acct.AccountNumber, domain.TransactionTypeDeposit)
	require.NoError(t, err)
	assert.True(t, deposits.Equal(decimal.RequireFromString("120.00")))

	withdrawals, err := f.history.TotalByType(ctx, acct.AccountNumber, domain.TransactionTypeWithdrawal)
	require.NoError(t, err)
	assert.True(t, withdrawals.Equal(decimal.RequireFromString("5.00")))
}

func TestBankSummary(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()
	f.seedFundedAccount(t, holder.ID, "100.00")
	f.seedFundedAccount(t, holder.ID, "40.00")

	summary, err := f.banking.BankSummary(ctx, "GB82")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.AccountCount)
	assert.True(t, summary.TotalBalance.Equal(decimal.RequireFromString("140.00")))
	assert.True(t, summary.AverageBalance.Equal(decimal.RequireFromString("70.00")))
	assert.Equal(t, "Union Trust", summary.Bank.Name)
}

func TestOnboardCustomerOpensFundedAccount(t *testing.T) {
	f := newFixture(t)
	f.seedBankAndHolder(t)
	ctx := context.Background()

	holder, acct, err := f.banking.OnboardCustomer(ctx, "GB82", "CUST-9", "Ben Eze", "ben@example.com",
		domain.AccountTypeSavings, "75.00")
	require.NoError(t, err)

	assert.Equal(t, "CUST-9", holder.CustomerID)
	assert.True(t, strings.HasPrefix(acct.AccountNumber, "GB82"))
	assert.True(t, acct.Balance.Equal(domain.MustMoney("75.00", domain.CurrencyUSD)))

	accounts, err := f.accounts.ListHolderAccounts(ctx, holder.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestStatementSummaryTotals(t *testing.T) {
	f := newFixture(t)
	_, holder := f.seedBankAndHolder(t)
	ctx := context.Background()
	acct := f.seedFundedAccount(t, holder.ID, "100.00")

	_, err := f.banking.Deposit(ctx, acct.AccountNumber, domain.MustMoney("20.00", domain.CurrencyUSD), "")
	require.NoError(t, err)
	_, err = f.banking.Withdraw(ctx, acct.AccountNumber, domain.MustMoney("35.00", domain.CurrencyUSD), "")
	require.NoError(t, err)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	summary, err := f.history.StatementSummary(ctx, acct.AccountNumber, from, to)
	require.NoError(t, err)

	assert.Len(t, summary.Transactions, 3) // initial deposit, deposit, withdrawal
	assert.True(t, summary.TotalCredits.Equal(decimal.RequireFromString("120.00")))
	assert.True(t, summary.TotalDebits.Equal(decimal.RequireFromString("35.00")))
	assert.True(t, summary.Net.Equal(decimal.RequireFromString("85.00")))
}
