// internal/api/handler/wallet.go
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
	"marketplace-ledger/internal/service"
)

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	service service.WalletService
	logger  *slog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc service.WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		service: svc,
		logger:  logger,
	}
}

func userIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

// MutationRequest is the request body shared by deposit/withdraw and the gift
// variants.
type MutationRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   int64           `json:"reference_id"`
}

func (req *MutationRequest) reference() *domain.EntryReference {
	if req.ReferenceType == "" {
		return nil
	}
	return &domain.EntryReference{Type: req.ReferenceType, ID: req.ReferenceID}
}

func (h *WalletHandler) decodeMutation(w http.ResponseWriter, r *http.Request) (int64, *MutationRequest, bool) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return 0, nil, false
	}
	var req MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return 0, nil, false
	}
	return userID, &req, true
}

// Deposit handles POST /wallets/{userID}/deposit.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decodeMutation(w, r)
	if !ok {
		return
	}
	wallet, entry, err := h.service.Deposit(r.Context(), userID, req.Amount, req.Description, req.reference())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":     "Deposit successful",
		"wallet_id":   wallet.ID,
		"new_balance": wallet.Balance,
		"entry_id":    entry.ID,
	})
}

// Withdraw handles POST /wallets/{userID}/withdraw.
func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decodeMutation(w, r)
	if !ok {
		return
	}
	wallet, entry, err := h.service.Withdraw(r.Context(), userID, req.Amount, req.Description, req.reference())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":     "Withdrawal successful",
		"wallet_id":   wallet.ID,
		"new_balance": wallet.Balance,
		"entry_id":    entry.ID,
	})
}

// SpendRequest is the request body for order payment from wallet balance.
type SpendRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	OrderID     int64           `json:"order_id"`
	Description string          `json:"description"`
}

// Spend handles POST /wallets/{userID}/spend.
func (h *WalletHandler) Spend(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}
	var req SpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	wallet, entry, err := h.service.Spend(r.Context(), userID, req.Amount, req.OrderID, req.Description)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":     "Payment successful",
		"wallet_id":   wallet.ID,
		"new_balance": wallet.Balance,
		"entry_id":    entry.ID,
	})
}

// DepositGift handles POST /wallets/{userID}/gift/deposit.
func (h *WalletHandler) DepositGift(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decodeMutation(w, r)
	if !ok {
		return
	}
	wallet, entry, err := h.service.DepositGift(r.Context(), userID, req.Amount, req.Description, req.reference())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":          "Gift deposit successful",
		"wallet_id":        wallet.ID,
		"new_gift_balance": wallet.GiftBalance,
		"entry_id":         entry.ID,
	})
}

// WithdrawGift handles POST /wallets/{userID}/gift/withdraw. An insufficient
// gift balance is reported as a 200 with success=false; it is an expected
// outcome, not a failure.
func (h *WalletHandler) WithdrawGift(w http.ResponseWriter, r *http.Request) {
	userID, req, ok := h.decodeMutation(w, r)
	if !ok {
		return
	}
	wallet, entry, withdrawn, err := h.service.WithdrawGift(r.Context(), userID, req.Amount, req.Description, req.reference())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	if !withdrawn {
		respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Insufficient gift balance",
		})
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"success":          true,
		"wallet_id":        wallet.ID,
		"new_gift_balance": wallet.GiftBalance,
		"entry_id":         entry.ID,
	})
}

// GetWallet handles GET /wallets/{userID}.
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}
	wallet, err := h.service.FindOrCreateWallet(r.Context(), userID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, wallet)
}

// GetLedger handles GET /wallets/{userID}/transactions.
func (h *WalletHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}
	limit, offset := paginationParams(r)
	entries, totalCount, err := h.service.GetLedger(r.Context(), userID, limit, offset)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, types.PaginatedResponse[domain.LedgerEntry]{
		Data:       entries,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	})
}

// paginationParams reads limit/offset query parameters with sane defaults.
func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
