// internal/api/handler/accounting.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"marketplace-ledger/internal/api/types"
	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"
	"marketplace-ledger/internal/service"
)

// AccountingHandler handles HTTP requests for accounting transactions: the
// admin approve/reject/settle actions, withdrawal request creation, and
// listings.
type AccountingHandler struct {
	service service.AccountingService
	logger  *slog.Logger
}

// NewAccountingHandler creates a new AccountingHandler.
func NewAccountingHandler(svc service.AccountingService, logger *slog.Logger) *AccountingHandler {
	return &AccountingHandler{
		service: svc,
		logger:  logger,
	}
}

// AdminActionRequest carries the acting admin and the optional
// tracking-code/reason payload of approve/reject/settle.
type AdminActionRequest struct {
	AdminID      int64  `json:"admin_id"`
	TrackingCode string `json:"tracking_code"`
	Reason       string `json:"reason"`
}

func (h *AccountingHandler) decodeAction(w http.ResponseWriter, r *http.Request) (int64, *AdminActionRequest, bool) {
	txID, err := strconv.ParseInt(chi.URLParam(r, "txID"), 10, 64)
	if err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid transaction id"})
		return 0, nil, false
	}
	var req AdminActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return 0, nil, false
	}
	if req.AdminID <= 0 {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "admin_id is required"})
		return 0, nil, false
	}
	return txID, &req, true
}

// respondAction reports a state-machine outcome. A no-op (someone else
// already acted) is a 409, never a 5xx.
func (h *AccountingHandler) respondAction(w http.ResponseWriter, ok bool, err error, reason string) {
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	if !ok {
		respondWithJSON(w, h.logger, http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": reason,
		})
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{"success": true})
}

// Approve handles POST /accounting/transactions/{txID}/approve.
func (h *AccountingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	txID, req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	applied, err := h.service.ApproveTransaction(r.Context(), txID, req.AdminID, req.TrackingCode)
	h.respondAction(w, applied, err, "transaction not in pending state")
}

// Reject handles POST /accounting/transactions/{txID}/reject.
func (h *AccountingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	txID, req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	if req.Reason == "" {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		return
	}
	applied, err := h.service.RejectTransaction(r.Context(), txID, req.AdminID, req.Reason)
	h.respondAction(w, applied, err, "transaction not in pending state")
}

// Settle handles POST /accounting/transactions/{txID}/settle.
func (h *AccountingHandler) Settle(w http.ResponseWriter, r *http.Request) {
	txID, req, ok := h.decodeAction(w, r)
	if !ok {
		return
	}
	applied, err := h.service.SettleTransaction(r.Context(), txID, req.AdminID, req.TrackingCode)
	h.respondAction(w, applied, err, "transaction not in approved state")
}

// WithdrawalRequest is the request body for creating a withdrawal request.
type WithdrawalRequest struct {
	UserID      int64           `json:"user_id"`
	ProviderID  int64           `json:"provider_id"`
	Amount      decimal.Decimal `json:"amount"`
	BankAccount string          `json:"bank_account"`
	Note        string          `json:"note"`
}

// CreateUserWithdrawal handles POST /accounting/withdrawals/user.
func (h *AccountingHandler) CreateUserWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	tx, err := h.service.CreateUserWithdrawalRequest(r.Context(), req.UserID, req.Amount, req.BankAccount, req.Note)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, tx)
}

// CreateProviderWithdrawal handles POST /accounting/withdrawals/provider.
func (h *AccountingHandler) CreateProviderWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	tx, err := h.service.CreateProviderWithdrawalRequest(r.Context(), req.ProviderID, req.Amount, req.BankAccount, req.Note)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusCreated, tx)
}

// Get handles GET /accounting/transactions/{txID}.
func (h *AccountingHandler) Get(w http.ResponseWriter, r *http.Request) {
	txID, err := strconv.ParseInt(chi.URLParam(r, "txID"), 10, 64)
	if err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid transaction id"})
		return
	}
	tx, err := h.service.GetTransaction(r.Context(), txID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, tx)
}

// List handles GET /accounting/transactions with optional status/type
// filters.
func (h *AccountingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ListFilter{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.AccountingStatus(v)
		filter.Status = &status
	}
	if v := r.URL.Query().Get("type"); v != "" {
		txType := domain.AccountingType(v)
		filter.Type = &txType
	}
	limit, offset := paginationParams(r)

	rows, totalCount, err := h.service.ListTransactions(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.PaginatedResponse[repository.AccountingListRow]{
		Data:       rows,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	})
}
