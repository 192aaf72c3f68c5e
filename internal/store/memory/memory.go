// Package memory is an in-memory store implementation for unit tests and
// local development. WithinTx stages writes on a deep copy and swaps it in on
// success, so a failed unit of work leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/store"
)

type data struct {
	accounts     map[int64]*domain.Account
	numbers      map[string]int64
	transactions []*domain.Transaction
	txnIDs       map[string]int64
	banks        map[int64]*domain.Bank
	bankCodes    map[string]int64
	holders      map[int64]*domain.AccountHolder

	accountSeq int64
	txnSeq     int64
	bankSeq    int64
	holderSeq  int64
}

func newData() *data {
	return &data{
		accounts:  make(map[int64]*domain.Account),
		numbers:   make(map[string]int64),
		txnIDs:    make(map[string]int64),
		banks:     make(map[int64]*domain.Bank),
		bankCodes: make(map[string]int64),
		holders:   make(map[int64]*domain.AccountHolder),
	}
}

func (d *data) clone() *data {
	c := &data{
		accounts:     make(map[int64]*domain.Account, len(d.accounts)),
		numbers:      make(map[string]int64, len(d.numbers)),
		transactions: make([]*domain.Transaction, len(d.transactions)),
		txnIDs:       make(map[string]int64, len(d.txnIDs)),
		banks:        make(map[int64]*domain.Bank, len(d.banks)),
		bankCodes:    make(map[string]int64, len(d.bankCodes)),
		holders:      make(map[int64]*domain.AccountHolder, len(d.holders)),
		accountSeq:   d.accountSeq,
		txnSeq:       d.txnSeq,
		bankSeq:      d.bankSeq,
		holderSeq:    d.holderSeq,
	}
	for id, a := range d.accounts {
		c.accounts[id] = cloneAccount(a)
	}
	for n, id := range d.numbers {
		c.numbers[n] = id
	}
	for i, t := range d.transactions {
		c.transactions[i] = cloneTransaction(t)
	}
	for n, id := range d.txnIDs {
		c.txnIDs[n] = id
	}
	for id, b := range d.banks {
		bank := *b
		c.banks[id] = &bank
	}
	for code, id := range d.bankCodes {
		c.bankCodes[code] = id
	}
	for id, h := range d.holders {
		holder := *h
		c.holders[id] = &holder
	}
	return c
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.CounterAccountID != nil {
		id := *t.CounterAccountID
		c.CounterAccountID = &id
	}
	return &c
}

type Store struct {
	mu sync.RWMutex
	d  *data
}

func NewStore() *Store {
	return &Store{d: newData()}
}

func (s *Store) Accounts() store.AccountStore         { return lockedAccounts{s} }
func (s *Store) Transactions() store.TransactionStore { return lockedTransactions{s} }
func (s *Store) Directory() store.DirectoryStore      { return lockedDirectory{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.d.clone()
	if err := fn(ctx, txView{d: staged}); err != nil {
		return err
	}
	s.d = staged
	return nil
}

type txView struct{ d *data }

func (v txView) Accounts() store.AccountStore         { return accountStore{v.d} }
func (v txView) Transactions() store.TransactionStore { return transactionStore{v.d} }
func (v txView) Directory() store.DirectoryStore      { return directoryStore{v.d} }

// accountStore operates on unguarded data; the Store wrappers below take the
// lock, the tx view already holds it.
type accountStore struct{ d *data }

func (s accountStore) Create(_ context.Context, acct *domain.Account) error {
	if _, exists := s.d.numbers[acct.AccountNumber]; exists {
		return fmt.Errorf("Create: account number %s already exists", acct.AccountNumber)
	}
	s.d.accountSeq++
	now := time.Now().UTC()
	acct.ID = s.d.accountSeq
	acct.Version = 1
	acct.CreatedAt = now
	acct.UpdatedAt = now
	s.d.accounts[acct.ID] = cloneAccount(acct)
	s.d.numbers[acct.AccountNumber] = acct.ID
	return nil
}

func (s accountStore) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	a, ok := s.d.accounts[id]
	if !ok {
		return nil, domain.NewAccountNotFoundByID(id)
	}
	return cloneAccount(a), nil
}

func (s accountStore) GetByNumber(_ context.Context, accountNumber string) (*domain.Account, error) {
	id, ok := s.d.numbers[accountNumber]
	if !ok {
		return nil, domain.NewAccountNotFound(accountNumber)
	}
	return cloneAccount(s.d.accounts[id]), nil
}

func (s accountStore) ExistsByNumber(_ context.Context, accountNumber string) (bool, error) {
	_, ok := s.d.numbers[accountNumber]
	return ok, nil
}

func (s accountStore) ListByHolder(_ context.Context, holderID int64) ([]domain.Account, error) {
	return s.list(func(a *domain.Account) bool { return a.HolderID == holderID }), nil
}

func (s accountStore) ListByBank(_ context.Context, bankID int64) ([]domain.Account, error) {
	return s.list(func(a *domain.Account) bool { return a.BankID == bankID }), nil
}

func (s accountStore) list(match func(*domain.Account) bool) []domain.Account {
	var out []domain.Account
	for id := int64(1); id <= s.d.accountSeq; id++ {
		if a, ok := s.d.accounts[id]; ok && match(a) {
			out = append(out, *cloneAccount(a))
		}
	}
	return out
}

func (s accountStore) UpdateBalance(_ context.Context, id int64, balance domain.Money, version int64) error {
	a, ok := s.d.accounts[id]
	if !ok {
		return domain.NewAccountNotFoundByID(id)
	}
	if a.Version != version {
		return domain.ErrVersionConflict
	}
	a.Balance = balance
	a.Version++
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s accountStore) UpdateStatus(_ context.Context, id int64, status domain.AccountStatus) error {
	a, ok := s.d.accounts[id]
	if !ok {
		return domain.NewAccountNotFoundByID(id)
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s accountStore) TotalBalanceByBank(_ context.Context, bankID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range s.d.accounts {
		if a.BankID == bankID {
			total = total.Add(a.Balance.Amount())
		}
	}
	return total, nil
}

type transactionStore struct{ d *data }

func (s transactionStore) Create(_ context.Context, txn *domain.Transaction) error {
	if _, exists := s.d.txnIDs[txn.TransactionID]; exists {
		return fmt.Errorf("Create: transaction id %s already exists", txn.TransactionID)
	}
	s.d.txnSeq++
	txn.ID = s.d.txnSeq
	txn.CreatedAt = time.Now().UTC()
	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = txn.CreatedAt
	}
	s.d.transactions = append(s.d.transactions, cloneTransaction(txn))
	s.d.txnIDs[txn.TransactionID] = txn.ID
	return nil
}

func (s transactionStore) GetByID(_ context.Context, id int64) (*domain.Transaction, error) {
	for _, t := range s.d.transactions {
		if t.ID == id {
			return cloneTransaction(t), nil
		}
	}
	return nil, domain.NewTransactionNotFound(fmt.Sprintf("#%d", id))
}

func (s transactionStore) GetByTransactionID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	t := s.find(transactionID)
	if t == nil {
		return nil, domain.NewTransactionNotFound(transactionID)
	}
	return cloneTransaction(t), nil
}

func (s transactionStore) ExistsByTransactionID(_ context.Context, transactionID string) (bool, error) {
	_, ok := s.d.txnIDs[transactionID]
	return ok, nil
}

func (s transactionStore) find(transactionID string) *domain.Transaction {
	id, ok := s.d.txnIDs[transactionID]
	if !ok {
		return nil
	}
	for _, t := range s.d.transactions {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s transactionStore) ListByAccount(_ context.Context, accountID int64, limit, offset int) ([]domain.Transaction, int, error) {
	matched := s.filter(func(t *domain.Transaction) bool { return t.AccountID == accountID })
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (s transactionStore) List(_ context.Context, f store.TransactionFilter) ([]domain.Transaction, error) {
	return s.filter(func(t *domain.Transaction) bool {
		if f.AccountID != nil && t.AccountID != *f.AccountID {
			return false
		}
		if f.Type != nil && t.Type != *f.Type {
			return false
		}
		if f.Status != nil && t.Status != *f.Status {
			return false
		}
		if f.From != nil && t.TransactionDate.Before(*f.From) {
			return false
		}
		if f.To != nil && t.TransactionDate.After(*f.To) {
			return false
		}
		return true
	}), nil
}

func (s transactionStore) ListIncomingTransfers(_ context.Context, accountID int64) ([]domain.Transaction, error) {
	return s.filter(func(t *domain.Transaction) bool {
		return t.AccountID == accountID && t.Type == domain.TransactionTypeTransferIn
	}), nil
}

func (s transactionStore) ListOutgoingTransfers(_ context.Context, accountID int64) ([]domain.Transaction, error) {
	return s.filter(func(t *domain.Transaction) bool {
		return t.AccountID == accountID && t.Type == domain.TransactionTypeTransferOut
	}), nil
}

func (s transactionStore) ListPendingOlderThan(_ context.Context, cutoff time.Time) ([]domain.Transaction, error) {
	return s.filter(func(t *domain.Transaction) bool {
		return t.Status == domain.TransactionStatusPending && t.TransactionDate.Before(cutoff)
	}), nil
}

// filter returns clones, newest first.
func (s transactionStore) filter(match func(*domain.Transaction) bool) []domain.Transaction {
	var out []domain.Transaction
	for i := len(s.d.transactions) - 1; i >= 0; i-- {
		if t := s.d.transactions[i]; match(t) {
			out = append(out, *cloneTransaction(t))
		}
	}
	return out
}

func (s transactionStore) UpdateStatus(_ context.Context, transactionID string, status domain.TransactionStatus) error {
	t := s.find(transactionID)
	if t == nil || t.Status.IsTerminal() {
		return domain.NewTransactionNotFound(transactionID)
	}
	t.Status = status
	return nil
}

func (s transactionStore) TotalByAccountAndType(_ context.Context, accountID int64, typ domain.TransactionType) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range s.d.transactions {
		if t.AccountID == accountID && t.Type == typ && t.Status == domain.TransactionStatusCompleted {
			total = total.Add(t.Amount.Amount())
		}
	}
	return total, nil
}

func (s transactionStore) CountByAccountAndDateRange(_ context.Context, accountID int64, from, to time.Time) (int64, error) {
	var count int64
	for _, t := range s.d.transactions {
		if t.AccountID == accountID && !t.TransactionDate.Before(from) && !t.TransactionDate.After(to) {
			count++
		}
	}
	return count, nil
}

func (s transactionStore) DailySummary(_ context.Context, accountID int64, from, to time.Time) ([]domain.DailySummary, error) {
	byDay := make(map[time.Time]*domain.DailySummary)
	for _, t := range s.d.transactions {
		if t.AccountID != accountID || t.TransactionDate.Before(from) || t.TransactionDate.After(to) {
			continue
		}
		day := t.TransactionDate.UTC().Truncate(24 * time.Hour)
		entry, ok := byDay[day]
		if !ok {
			entry = &domain.DailySummary{Date: day, Total: decimal.Zero}
			byDay[day] = entry
		}
		entry.Count++
		entry.Total = entry.Total.Add(t.Amount.Amount())
	}

	out := make([]domain.DailySummary, 0, len(byDay))
	for _, entry := range byDay {
		out = append(out, *entry)
	}
	sortSummaries(out)
	return out, nil
}

func sortSummaries(summaries []domain.DailySummary) {
	for i := 1; i < len(summaries); i++ {
		for j := i; j > 0 && summaries[j].Date.Before(summaries[j-1].Date); j-- {
			summaries[j], summaries[j-1] = summaries[j-1], summaries[j]
		}
	}
}

type directoryStore struct{ d *data }

func (s directoryStore) CreateBank(_ context.Context, bank *domain.Bank) error {
	if _, exists := s.d.bankCodes[bank.Code]; exists {
		return fmt.Errorf("CreateBank: bank code %s already exists", bank.Code)
	}
	s.d.bankSeq++
	bank.ID = s.d.bankSeq
	bank.CreatedAt = time.Now().UTC()
	b := *bank
	s.d.banks[bank.ID] = &b
	s.d.bankCodes[bank.Code] = bank.ID
	return nil
}

func (s directoryStore) GetBankByCode(_ context.Context, code string) (*domain.Bank, error) {
	id, ok := s.d.bankCodes[code]
	if !ok {
		return nil, domain.NewBankNotFound(code)
	}
	b := *s.d.banks[id]
	return &b, nil
}

func (s directoryStore) CreateHolder(_ context.Context, holder *domain.AccountHolder) error {
	s.d.holderSeq++
	holder.ID = s.d.holderSeq
	holder.CreatedAt = time.Now().UTC()
	h := *holder
	s.d.holders[holder.ID] = &h
	return nil
}

func (s directoryStore) GetHolderByID(_ context.Context, id int64) (*domain.AccountHolder, error) {
	h, ok := s.d.holders[id]
	if !ok {
		return nil, domain.NewAccountHolderNotFound(id)
	}
	c := *h
	return &c, nil
}

func (s directoryStore) GetHolderByEmail(_ context.Context, email string) (*domain.AccountHolder, error) {
	for _, h := range s.d.holders {
		if h.Email == email {
			c := *h
			return &c, nil
		}
	}
	return nil, domain.ErrAccountHolderNotFound
}

// Locked wrappers give the non-transactional read/write path the same
// interface as the tx view.

type lockedAccounts struct{ s *Store }

func (l lockedAccounts) Create(ctx context.Context, acct *domain.Account) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return accountStore{l.s.d}.Create(ctx, acct)
}

func (l lockedAccounts) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return accountStore{l.s.d}.GetByID(ctx, id)
}

func (l lockedAccounts) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return accountStore{l.s.d}.GetByNumber(ctx, number)
}

func (l lockedAccounts) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return accountStore{l.s.d}.ExistsByNumber(ctx, number)
}

func (l lockedAccounts) ListByHolder(ctx context.Context, holderID int64) ([]domain.Account, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return accountStore{l.s.d}.ListByHolder(ctx, holderID)
}

func (l lockedAccounts) ListByBank(ctx context.Context, bankID int64) ([]domain.Account, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return accountStore{l.s.d}.ListByBank(ctx, bankID)
}

func (l lockedAccounts) UpdateBalance(ctx context.Context, id int64, balance domain.Money, version int64) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return accountStore{l.s.d}.UpdateBalance(ctx, id, balance, version)
}

func (l lockedAccounts) UpdateStatus(ctx context.Context, id int64, status domain.AccountStatus) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return accountStore{l.s.d}.UpdateStatus(ctx, id, status)
}

func (l lockedAccounts) TotalBalanceByBank(ctx context.Context, bankID int64) (decimal.Decimal, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return accountStore{l.s.d}.TotalBalanceByBank(ctx, bankID)
}

type lockedTransactions struct{ s *Store }

func (l lockedTransactions) Create(ctx context.Context, txn *domain.Transaction) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return transactionStore{l.s.d}.Create(ctx, txn)
}

func (l lockedTransactions) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.GetByID(ctx, id)
}

func (l lockedTransactions) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.GetByTransactionID(ctx, transactionID)
}

func (l lockedTransactions) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.ExistsByTransactionID(ctx, transactionID)
}

func (l lockedTransactions) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.Transaction, int, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.ListByAccount(ctx, accountID, limit, offset)
}

func (l lockedTransactions) List(ctx context.Context, filter store.TransactionFilter) ([]domain.Transaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.List(ctx, filter)
}

func (l lockedTransactions) ListIncomingTransfers(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.ListIncomingTransfers(ctx, accountID)
}

func (l lockedTransactions) ListOutgoingTransfers(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.ListOutgoingTransfers(ctx, accountID)
}

func (l lockedTransactions) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Transaction, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.ListPendingOlderThan(ctx, cutoff)
}

func (l lockedTransactions) UpdateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return transactionStore{l.s.d}.UpdateStatus(ctx, transactionID, status)
}

func (l lockedTransactions) TotalByAccountAndType(ctx context.Context, accountID int64, typ domain.TransactionType) (decimal.Decimal, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.TotalByAccountAndType(ctx, accountID, typ)
}

func (l lockedTransactions) CountByAccountAndDateRange(ctx context.Context, accountID int64, from, to time.Time) (int64, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.CountByAccountAndDateRange(ctx, accountID, from, to)
}

func (l lockedTransactions) DailySummary(ctx context.Context, accountID int64, from, to time.Time) ([]domain.DailySummary, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return transactionStore{l.s.d}.DailySummary(ctx, accountID, from, to)
}

type lockedDirectory struct{ s *Store }

func (l lockedDirectory) CreateBank(ctx context.Context, bank *domain.Bank) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return directoryStore{l.s.d}.CreateBank(ctx, bank)
}

func (l lockedDirectory) GetBankByCode(ctx context.Context, code string) (*domain.Bank, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return directoryStore{l.s.d}.GetBankByCode(ctx, code)
}

func (l lockedDirectory) CreateHolder(ctx context.Context, holder *domain.AccountHolder) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return directoryStore{l.s.d}.CreateHolder(ctx, holder)
}

func (l lockedDirectory) GetHolderByID(ctx context.Context, id int64) (*domain.AccountHolder, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return directoryStore{l.s.d}.GetHolderByID(ctx, id)
}

func (l lockedDirectory) GetHolderByEmail(ctx context.Context, email string) (*domain.AccountHolder, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	return directoryStore{l.s.d}.GetHolderByEmail(ctx, email)
}
