// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"marketplace-ledger/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(
	walletHandler *handler.WalletHandler,
	accountingHandler *handler.AccountingHandler,
	reportsHandler *handler.ReportsHandler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Wallet API routes
	r.Route("/wallets", func(r chi.Router) {
		r.Get("/{userID}", walletHandler.GetWallet)
		r.Get("/{userID}/transactions", walletHandler.GetLedger)
		r.Post("/{userID}/deposit", walletHandler.Deposit)
		r.Post("/{userID}/withdraw", walletHandler.Withdraw)
		r.Post("/{userID}/spend", walletHandler.Spend)
		r.Post("/{userID}/gift/deposit", walletHandler.DepositGift)
		r.Post("/{userID}/gift/withdraw", walletHandler.WithdrawGift)
	})

	// Accounting transaction routes: withdrawal requests and admin actions
	r.Route("/accounting", func(r chi.Router) {
		r.Post("/withdrawals/user", accountingHandler.CreateUserWithdrawal)
		r.Post("/withdrawals/provider", accountingHandler.CreateProviderWithdrawal)
		r.Get("/transactions", accountingHandler.List)
		r.Get("/transactions/{txID}", accountingHandler.Get)
		r.Post("/transactions/{txID}/approve", accountingHandler.Approve)
		r.Post("/transactions/{txID}/reject", accountingHandler.Reject)
		r.Post("/transactions/{txID}/settle", accountingHandler.Settle)
	})

	// Reporting and the scheduler's snapshot trigger
	r.Get("/reports/balance-summary", reportsHandler.BalanceSummary)
	r.Get("/reports/revenue-chart", reportsHandler.RevenueChart)
	r.Post("/snapshots", reportsHandler.CreateSnapshot)

	return r
}
