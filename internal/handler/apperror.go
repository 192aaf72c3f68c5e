package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrAccountNotFound     = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrBankNotFound        = &AppError{http.StatusNotFound, "BANK_NOT_FOUND", "Bank not found"}
	ErrHolderNotFound      = &AppError{http.StatusNotFound, "ACCOUNT_HOLDER_NOT_FOUND", "Account holder not found"}
	ErrTransactionNotFound = &AppError{http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found"}
	ErrInsufficientFunds   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidStatus       = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Invalid account status"}
	ErrAccountNotActive    = &AppError{http.StatusUnprocessableEntity, "ACCOUNT_NOT_ACTIVE", "Account is not active"}
	ErrSameAccountTransfer = &AppError{http.StatusUnprocessableEntity, "SAME_ACCOUNT_TRANSFER", "Cannot transfer to the same account"}
	ErrNonZeroBalance      = &AppError{http.StatusUnprocessableEntity, "NON_ZERO_BALANCE", "Account balance must be zero"}
	ErrCurrencyMismatch    = &AppError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", "Currency mismatch"}
	ErrVersionConflict     = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrDuplicateID         = &AppError{http.StatusConflict, "DUPLICATE_ID", "Could not allocate a unique identifier, please retry"}
	ErrTimeout             = &AppError{http.StatusGatewayTimeout, "TIMEOUT", "Operation timed out"}
)
