package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/service"
)

type transferFacade interface {
	Transfer(ctx context.Context, fromNumber, toNumber string, amount domain.Money, description string) *service.TransferResult
	Deposit(ctx context.Context, accountNumber string, amount domain.Money, description string) (*domain.Transaction, error)
	Withdraw(ctx context.Context, accountNumber string, amount domain.Money, description string) (*domain.Transaction, error)
}

type TransferHandler struct {
	banking transferFacade
}

func NewTransferHandler(banking transferFacade) *TransferHandler {
	return &TransferHandler{banking: banking}
}

type moveMoneyRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

func (r moveMoneyRequest) parse() (domain.Money, []FieldError) {
	var errs []FieldError
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "unsupported currency"})
	}
	if len(errs) > 0 {
		return domain.Money{}, errs
	}

	amount, err := domain.ParseMoney(r.Amount, domain.Currency(r.Currency))
	if err != nil {
		return domain.Money{}, []FieldError{{Field: "amount", Message: "malformed amount"}}
	}
	return amount, nil
}

func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req moveMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	amount, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.banking.Deposit(r.Context(), r.PathValue("accountNumber"), amount, req.Description)
	if err != nil {
		logging.FromContext(r.Context()).Warn("deposit failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn))
}

func (h *TransferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req moveMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	amount, fields := req.parse()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txn, err := h.banking.Withdraw(r.Context(), r.PathValue("accountNumber"), amount, req.Description)
	if err != nil {
		logging.FromContext(r.Context()).Warn("withdrawal failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(txn))
}

type transferRequest struct {
	FromAccountNumber string `json:"from_account_number"`
	ToAccountNumber   string `json:"to_account_number"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Description       string `json:"description"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.FromAccountNumber == "" {
		errs = append(errs, FieldError{Field: "from_account_number", Message: "required"})
	}
	if r.ToAccountNumber == "" {
		errs = append(errs, FieldError{Field: "to_account_number", Message: "required"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}
	if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "unsupported currency"})
	}
	return errs
}

// Transfer always answers 200 with a structured result; the Success flag and
// ErrorMessage field carry the outcome. Only malformed requests get an error
// status.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, err := domain.ParseMoney(req.Amount, domain.Currency(req.Currency))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "amount", Message: "malformed amount"}})
		return
	}

	result := h.banking.Transfer(r.Context(), req.FromAccountNumber, req.ToAccountNumber, amount, req.Description)
	RespondSuccess(w, http.StatusOK, result)
}
