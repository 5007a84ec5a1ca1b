// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "marketplace-ledger/internal/api"
	"marketplace-ledger/internal/api/handler"
	"marketplace-ledger/internal/cache"
	"marketplace-ledger/internal/config"
	"marketplace-ledger/internal/repository"
	"marketplace-ledger/internal/repository/postgres"
	"marketplace-ledger/internal/service"
	"marketplace-ledger/internal/util"
	"marketplace-ledger/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Cache  *cache.RedisCache

	// Repositories
	WalletRepository     repository.WalletRepository
	EntryRepository      repository.EntryRepository
	AccountingRepository repository.AccountingRepository
	SnapshotRepository   repository.SnapshotRepository
	PartyRepository      repository.PartyRepository

	// Services
	WalletService     service.WalletService
	SnapshotEngine    service.SnapshotEngine
	AccountingService service.AccountingService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Connect to Redis for the reporting cache
	app.Cache = cache.NewRedisCache(app.Config.RedisAddr, app.Config.RedisPassword)
	app.Logger.Info("Reporting cache initialized.")

	// 5. Initialize Repositories
	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.EntryRepository = postgres.NewEntryRepository(app.DB)
	app.AccountingRepository = postgres.NewAccountingRepository(app.DB)
	app.SnapshotRepository = postgres.NewSnapshotRepository(app.DB)
	app.PartyRepository = postgres.NewPartyRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Initialize Services
	app.WalletService = service.NewWalletService(
		app.DB, // DBTxBeginner
		app.DB, // DBExecutor
		app.WalletRepository,
		app.EntryRepository,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.SnapshotEngine = service.NewSnapshotEngine(
		app.DB,
		app.AccountingRepository,
		app.SnapshotRepository,
	)
	app.AccountingService = service.NewAccountingService(
		app.DB,
		app.DB,
		app.AccountingRepository,
		app.PartyRepository,
		app.SnapshotEngine,
		app.Cache,
		app.Config.SummaryTTL,
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	walletHandler := handler.NewWalletHandler(app.WalletService, app.Logger)
	accountingHandler := handler.NewAccountingHandler(app.AccountingService, app.Logger)
	reportsHandler := handler.NewReportsHandler(app.AccountingService, app.SnapshotEngine, app.Logger)
	app.HTTPHandler = router.NewRouter(walletHandler, accountingHandler, reportsHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			app.Logger.Error("Failed to close cache connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
