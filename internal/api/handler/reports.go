// internal/api/handler/reports.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/service"
)

// ReportsHandler serves the read-only dashboard endpoints and the scheduler's
// snapshot trigger.
type ReportsHandler struct {
	accounting service.AccountingService
	snapshots  service.SnapshotEngine
	logger     *slog.Logger
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(accounting service.AccountingService, snapshots service.SnapshotEngine, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{
		accounting: accounting,
		snapshots:  snapshots,
		logger:     logger,
	}
}

// BalanceSummary handles GET /reports/balance-summary?period=daily.
// Always 200: the service degrades to zero values on internal failure.
func (h *ReportsHandler) BalanceSummary(w http.ResponseWriter, r *http.Request) {
	period := domain.PeriodType(r.URL.Query().Get("period"))
	if period == "" {
		period = domain.PeriodDaily
	}
	summary := h.accounting.GetBalanceSummary(r.Context(), period)
	respondWithJSON(w, h.logger, http.StatusOK, summary)
}

// RevenueChart handles GET /reports/revenue-chart?months=6.
func (h *ReportsHandler) RevenueChart(w http.ResponseWriter, r *http.Request) {
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			months = n
		}
	}
	points := h.accounting.GetRevenueChart(r.Context(), months)
	respondWithJSON(w, h.logger, http.StatusOK, points)
}

// CreateSnapshotRequest is the scheduler's request body. Date is optional and
// defaults to today.
type CreateSnapshotRequest struct {
	Period domain.PeriodType `json:"period"`
	Date   string            `json:"date"` // YYYY-MM-DD
}

// CreateSnapshot handles POST /snapshots, the scheduled job entry point.
// Repeated invocations for the same period are safe; an existing snapshot is
// reported with created=false.
func (h *ReportsHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req CreateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !domain.ValidPeriod(req.Period) {
		respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "period must be daily, monthly or yearly"})
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondWithJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	snapshot, created, err := h.snapshots.CreateSnapshot(r.Context(), req.Period, date)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respondWithJSON(w, h.logger, status, map[string]interface{}{
		"created":  created,
		"snapshot": snapshot,
	})
}
