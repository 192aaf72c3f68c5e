package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tobenna/bankcore/internal/domain"
	"github.com/tobenna/bankcore/internal/service"
	"github.com/tobenna/bankcore/internal/store"
)

type historyService interface {
	AccountStatement(ctx context.Context, accountNumber string, limit, offset int) (*service.Statement, error)
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Search(ctx context.Context, accountNumber string, filter store.TransactionFilter) ([]domain.Transaction, error)
	IncomingTransfers(ctx context.Context, accountNumber string) ([]domain.Transaction, error)
	OutgoingTransfers(ctx context.Context, accountNumber string) ([]domain.Transaction, error)
	TotalByType(ctx context.Context, accountNumber string, typ domain.TransactionType) (decimal.Decimal, error)
	DailySummary(ctx context.Context, accountNumber string, from, to time.Time) ([]domain.DailySummary, error)
	StatementSummary(ctx context.Context, accountNumber string, from, to time.Time) (*service.RangeSummary, error)
}

type TransactionHandler struct {
	history historyService
}

func NewTransactionHandler(history historyService) *TransactionHandler {
	return &TransactionHandler{history: history}
}

func (h *TransactionHandler) Statement(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.history.AccountStatement(r.Context(), r.PathValue("accountNumber"), limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"account_number": page.Account.AccountNumber,
		"transactions":   toTransactionDTOs(page.Transactions),
		"total":          page.Total,
		"limit":          page.Limit,
		"offset":         page.Offset,
	})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	txn, err := h.history.GetTransaction(r.Context(), r.PathValue("transactionID"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTO(txn))
}

// Search filters by type, status and date range via query parameters.
func (h *TransactionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var filter store.TransactionFilter
	q := r.URL.Query()

	if raw := q.Get("type"); raw != "" {
		typ := domain.TransactionType(raw)
		if !typ.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "type", Message: "unknown transaction type"}})
			return
		}
		filter.Type = &typ
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.TransactionStatus(raw)
		filter.Status = &status
	}
	var fields []FieldError
	if from, ok := parseTimeParam(q.Get("from"), "from", &fields); ok {
		filter.From = from
	}
	if to, ok := parseTimeParam(q.Get("to"), "to", &fields); ok {
		filter.To = to
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	txns, err := h.history.Search(r.Context(), r.PathValue("accountNumber"), filter)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTOs(txns))
}

func (h *TransactionHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	txns, err := h.history.IncomingTransfers(r.Context(), r.PathValue("accountNumber"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTOs(txns))
}

func (h *TransactionHandler) Outgoing(w http.ResponseWriter, r *http.Request) {
	txns, err := h.history.OutgoingTransfers(r.Context(), r.PathValue("accountNumber"))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransactionDTOs(txns))
}

func (h *TransactionHandler) TotalByType(w http.ResponseWriter, r *http.Request) {
	typ := domain.TransactionType(r.URL.Query().Get("type"))
	if !typ.IsValid() {
		RespondValidationError(w, []FieldError{{Field: "type", Message: "unknown transaction type"}})
		return
	}

	total, err := h.history.TotalByType(r.Context(), r.PathValue("accountNumber"), typ)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"type":  typ,
		"total": total,
	})
}

func (h *TransactionHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var fields []FieldError
	if q.Get("from") == "" {
		fields = append(fields, FieldError{Field: "from", Message: "required"})
	}
	if q.Get("to") == "" {
		fields = append(fields, FieldError{Field: "to", Message: "required"})
	}
	from, _ := parseTimeParam(q.Get("from"), "from", &fields)
	to, _ := parseTimeParam(q.Get("to"), "to", &fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	summaries, err := h.history.DailySummary(r.Context(), r.PathValue("accountNumber"), *from, *to)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, summaries)
}

func (h *TransactionHandler) StatementSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var fields []FieldError
	if q.Get("from") == "" {
		fields = append(fields, FieldError{Field: "from", Message: "required"})
	}
	if q.Get("to") == "" {
		fields = append(fields, FieldError{Field: "to", Message: "required"})
	}
	from, _ := parseTimeParam(q.Get("from"), "from", &fields)
	to, _ := parseTimeParam(q.Get("to"), "to", &fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	summary, err := h.history.StatementSummary(r.Context(), r.PathValue("accountNumber"), *from, *to)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"account_number": summary.Account.AccountNumber,
		"from":           summary.From,
		"to":             summary.To,
		"transactions":   toTransactionDTOs(summary.Transactions),
		"total_credits":  summary.TotalCredits,
		"total_debits":   summary.TotalDebits,
		"net":            summary.Net,
	})
}

func parseTimeParam(raw, field string, fields *[]FieldError) (*time.Time, bool) {
	if raw == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		*fields = append(*fields, FieldError{Field: field, Message: "must be RFC 3339"})
		return nil, false
	}
	return &t, true
}

type transactionDTO struct {
	TransactionID   string       `json:"transaction_id"`
	Amount          domain.Money `json:"amount"`
	Type            string       `json:"type"`
	Status          string       `json:"status"`
	Description     string       `json:"description,omitempty"`
	BalanceBefore   domain.Money `json:"balance_before"`
	BalanceAfter    domain.Money `json:"balance_after"`
	TransactionDate time.Time    `json:"transaction_date"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		TransactionID:   t.TransactionID,
		Amount:          t.Amount,
		Type:            string(t.Type),
		Status:          string(t.Status),
		Description:     t.Description,
		BalanceBefore:   t.BalanceBefore,
		BalanceAfter:    t.BalanceAfter,
		TransactionDate: t.TransactionDate,
	}
}

func toTransactionDTOs(txns []domain.Transaction) []transactionDTO {
	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i])
	}
	return dtos
}
