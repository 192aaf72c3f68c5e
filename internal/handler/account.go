package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/service"
)

type accountService interface {
	CreateBank(ctx context.Context, code, name string, currency domain.Currency) (*domain.Bank, error)
	OnboardCustomer(ctx context.Context, customerID, name, email string) (*domain.AccountHolder, error)
	GetAccount(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetBalance(ctx context.Context, accountNumber string) (domain.Money, error)
	ListHolderAccounts(ctx context.Context, holderID int64) ([]domain.Account, error)
}

type bankingFacade interface {
	OpenAccountWithDeposit(ctx context.Context, bankCode string, holderID int64, accountType domain.AccountType, initialAmount string) (*domain.Account, *domain.Transaction, error)
	SetAccountStatus(ctx context.Context, accountNumber string, status domain.AccountStatus) (*domain.Account, error)
	CloseAccount(ctx context.Context, accountNumber, reason string) (*domain.Transaction, error)
	BankSummary(ctx context.Context, bankCode string) (*service.BankSummary, error)
	OnboardCustomer(ctx context.Context, bankCode, customerID, name, email string, accountType domain.AccountType, initialAmount string) (*domain.AccountHolder, *domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
	banking  bankingFacade
}

func NewAccountHandler(accounts accountService, banking bankingFacade) *AccountHandler {
	return &AccountHandler{accounts: accounts, banking: banking}
}

type createBankRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (r createBankRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "required"})
	}
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "unsupported currency"})
	}
	return errs
}

func (h *AccountHandler) CreateBank(w http.ResponseWriter, r *http.Request) {
	var req createBankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	bank, err := h.accounts.CreateBank(r.Context(), req.Code, req.Name, domain.Currency(req.Currency))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toBankDTO(bank))
}

type onboardRequest struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

func (r onboardRequest) Validate() []FieldError {
	var errs []FieldError
	if r.CustomerID == "" {
		errs = append(errs, FieldError{Field: "customer_id", Message: "required"})
	}
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required"})
	}
	return errs
}

func (h *AccountHandler) OnboardCustomer(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	holder, err := h.accounts.OnboardCustomer(r.Context(), req.CustomerID, req.Name, req.Email)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toHolderDTO(holder))
}

type onboardWithAccountRequest struct {
	BankCode       string `json:"bank_code"`
	CustomerID     string `json:"customer_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	AccountType    string `json:"account_type"`
	InitialDeposit string `json:"initial_deposit,omitempty"`
}

func (r onboardWithAccountRequest) Validate() []FieldError {
	errs := onboardRequest{CustomerID: r.CustomerID, Name: r.Name, Email: r.Email}.Validate()
	if r.BankCode == "" {
		errs = append(errs, FieldError{Field: "bank_code", Message: "required"})
	}
	if !domain.AccountType(r.AccountType).IsValid() {
		errs = append(errs, FieldError{Field: "account_type", Message: "must be SAVINGS or CHECKING"})
	}
	return errs
}

// Onboard registers the customer and opens a funded account in one request.
func (h *AccountHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardWithAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	holder, account, err := h.banking.OnboardCustomer(r.Context(), req.BankCode, req.CustomerID,
		req.Name, req.Email, domain.AccountType(req.AccountType), req.InitialDeposit)
	if err != nil {
		logging.FromContext(r.Context()).Warn("onboarding failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, map[string]any{
		"holder":  toHolderDTO(holder),
		"account": toAccountDTO(account),
	})
}

type createAccountRequest struct {
	BankCode       string `json:"bank_code"`
	HolderID       int64  `json:"holder_id"`
	AccountType    string `json:"account_type"`
	InitialDeposit string `json:"initial_deposit,omitempty"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.BankCode == "" {
		errs = append(errs, FieldError{Field: "bank_code", Message: "required"})
	}
	if r.HolderID <= 0 {
		errs = append(errs, FieldError{Field: "holder_id", Message: "required"})
	}
	if !domain.AccountType(r.AccountType).IsValid() {
		errs = append(errs, FieldError{Field: "account_type", Message: "must be SAVINGS or CHECKING"})
	}
	return errs
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, txn, err := h.banking.OpenAccountWithDeposit(r.Context(), req.BankCode, req.HolderID,
		domain.AccountType(req.AccountType), req.InitialDeposit)
	if err != nil {
		log.Warn("account creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	resp := map[string]any{"account": toAccountDTO(account)}
	if txn != nil {
		resp["initial_deposit"] = toTransactionDTO(txn)
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/accounts/%s", account.AccountNumber))
	RespondSuccess(w, http.StatusCreated, resp)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), r.PathValue("accountNumber"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.accounts.GetBalance(r.Context(), r.PathValue("accountNumber"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"balance": balance})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *AccountHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	account, err := h.banking.SetAccountStatus(r.Context(), r.PathValue("accountNumber"),
		domain.AccountStatus(req.Status))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

type closeAccountRequest struct {
	Reason string `json:"reason"`
}

func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req closeAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Reason == "" {
		RespondValidationError(w, []FieldError{{Field: "reason", Message: "required"}})
		return
	}

	txn, err := h.banking.CloseAccount(r.Context(), r.PathValue("accountNumber"), req.Reason)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn))
}

func (h *AccountHandler) ListByHolder(w http.ResponseWriter, r *http.Request) {
	var holderID int64
	if _, err := fmt.Sscanf(r.PathValue("holderID"), "%d", &holderID); err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	accounts, err := h.accounts.ListHolderAccounts(r.Context(), holderID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) BankSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.banking.BankSummary(r.Context(), r.PathValue("bankCode"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, summary)
}

type bankDTO struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

func toBankDTO(b *domain.Bank) bankDTO {
	return bankDTO{
		ID:        b.ID,
		Code:      b.Code,
		Name:      b.Name,
		Currency:  string(b.Currency),
		CreatedAt: b.CreatedAt,
	}
}

type holderDTO struct {
	ID         int64     `json:"id"`
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

func toHolderDTO(h *domain.AccountHolder) holderDTO {
	return holderDTO{
		ID:         h.ID,
		CustomerID: h.CustomerID,
		Name:       h.Name,
		Email:      h.Email,
		CreatedAt:  h.CreatedAt,
	}
}

type accountDTO struct {
	AccountNumber string       `json:"account_number"`
	Balance       domain.Money `json:"balance"`
	Type          string       `json:"account_type"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance,
		Type:          string(a.Type),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}
