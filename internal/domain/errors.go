package domain

import "fmt"

// ErrorKind tags a domain error so callers can branch without depending on
// message text. Match with errors.Is against the Err* sentinels below.
type ErrorKind string

const (
	KindAccountNotFound       ErrorKind = "ACCOUNT_NOT_FOUND"
	KindInsufficientFunds     ErrorKind = "INSUFFICIENT_FUNDS"
	KindInvalidAmount         ErrorKind = "INVALID_AMOUNT"
	KindInvalidStatus         ErrorKind = "INVALID_STATUS"
	KindAccountNotActive      ErrorKind = "ACCOUNT_NOT_ACTIVE"
	KindSameAccountTransfer   ErrorKind = "SAME_ACCOUNT_TRANSFER"
	KindNonZeroBalance        ErrorKind = "NON_ZERO_BALANCE"
	KindDuplicateID           ErrorKind = "DUPLICATE_ID"
	KindTimeout               ErrorKind = "TIMEOUT"
	KindCurrencyMismatch      ErrorKind = "CURRENCY_MISMATCH"
	KindBankNotFound          ErrorKind = "BANK_NOT_FOUND"
	KindAccountHolderNotFound ErrorKind = "ACCOUNT_HOLDER_NOT_FOUND"
	KindTransactionNotFound   ErrorKind = "TRANSACTION_NOT_FOUND"
	KindVersionConflict       ErrorKind = "VERSION_CONFLICT"
)

// Error is the single error type for the banking core. Contextual fields are
// populated where they make sense for the kind (InsufficientFunds carries the
// requested and available amounts).
type Error struct {
	Kind          ErrorKind
	Message       string
	AccountNumber string
	Requested     Money
	Available     Money
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Is matches any *Error of the same kind, so
// errors.Is(err, ErrInsufficientFunds) works regardless of context fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrAccountNotFound       = &Error{Kind: KindAccountNotFound, Message: "account not found"}
	ErrInsufficientFunds     = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrInvalidAmount         = &Error{Kind: KindInvalidAmount, Message: "amount must be positive"}
	ErrInvalidStatus         = &Error{Kind: KindInvalidStatus, Message: "invalid account status"}
	ErrAccountNotActive      = &Error{Kind: KindAccountNotActive, Message: "account is not active"}
	ErrSameAccountTransfer   = &Error{Kind: KindSameAccountTransfer, Message: "cannot transfer to the same account"}
	ErrNonZeroBalance        = &Error{Kind: KindNonZeroBalance, Message: "account balance is not zero"}
	ErrDuplicateID           = &Error{Kind: KindDuplicateID, Message: "id generation exhausted retries"}
	ErrTimeout               = &Error{Kind: KindTimeout, Message: "operation timed out"}
	ErrCurrencyMismatch      = &Error{Kind: KindCurrencyMismatch, Message: "currency mismatch"}
	ErrBankNotFound          = &Error{Kind: KindBankNotFound, Message: "bank not found"}
	ErrAccountHolderNotFound = &Error{Kind: KindAccountHolderNotFound, Message: "account holder not found"}
	ErrTransactionNotFound   = &Error{Kind: KindTransactionNotFound, Message: "transaction not found"}
	ErrVersionConflict       = &Error{Kind: KindVersionConflict, Message: "record was modified concurrently"}
)

func NewAccountNotFound(accountNumber string) error {
	return &Error{
		Kind:          KindAccountNotFound,
		Message:       fmt.Sprintf("account not found: %s", accountNumber),
		AccountNumber: accountNumber,
	}
}

func NewAccountNotFoundByID(id int64) error {
	return &Error{
		Kind:    KindAccountNotFound,
		Message: fmt.Sprintf("account not found with id %d", id),
	}
}

func NewInsufficientFunds(accountNumber string, requested, available Money) error {
	return &Error{
		Kind: KindInsufficientFunds,
		Message: fmt.Sprintf("insufficient funds in account %s: requested %s, available %s",
			accountNumber, requested, available),
		AccountNumber: accountNumber,
		Requested:     requested,
		Available:     available,
	}
}

func NewInvalidAmount(op string) error {
	return &Error{
		Kind:    KindInvalidAmount,
		Message: fmt.Sprintf("%s amount must be positive", op),
	}
}

func NewInvalidStatus(status AccountStatus) error {
	return &Error{
		Kind:    KindInvalidStatus,
		Message: fmt.Sprintf("invalid account status %q", status),
	}
}

func NewAccountNotActive(accountNumber string, status AccountStatus) error {
	return &Error{
		Kind:          KindAccountNotActive,
		Message:       fmt.Sprintf("account %s is not active (status %s)", accountNumber, status),
		AccountNumber: accountNumber,
	}
}

func NewSameAccountTransfer(accountNumber string) error {
	return &Error{
		Kind:          KindSameAccountTransfer,
		Message:       fmt.Sprintf("cannot transfer from account %s to itself", accountNumber),
		AccountNumber: accountNumber,
	}
}

func NewNonZeroBalance(accountNumber string, balance Money) error {
	return &Error{
		Kind:          KindNonZeroBalance,
		Message:       fmt.Sprintf("cannot close account %s with balance %s", accountNumber, balance),
		AccountNumber: accountNumber,
		Available:     balance,
	}
}

func NewDuplicateID(prefix string, attempts int) error {
	return &Error{
		Kind:    KindDuplicateID,
		Message: fmt.Sprintf("id generation for prefix %q exhausted %d attempts", prefix, attempts),
	}
}

func NewTimeout(op string) error {
	return &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("%s timed out", op),
	}
}

func NewCurrencyMismatch(a, b Currency) error {
	return &Error{
		Kind:    KindCurrencyMismatch,
		Message: fmt.Sprintf("currency mismatch: %s vs %s", a, b),
	}
}

func NewBankNotFound(code string) error {
	return &Error{
		Kind:    KindBankNotFound,
		Message: fmt.Sprintf("bank not found with code %s", code),
	}
}

func NewAccountHolderNotFound(id int64) error {
	return &Error{
		Kind:    KindAccountHolderNotFound,
		Message: fmt.Sprintf("account holder not found with id %d", id),
	}
}

func NewTransactionNotFound(transactionID string) error {
	return &Error{
		Kind:    KindTransactionNotFound,
		Message: fmt.Sprintf("transaction not found: %s", transactionID),
	}
}
