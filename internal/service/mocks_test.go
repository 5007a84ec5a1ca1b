// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"marketplace-ledger/internal/cache"
	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"
	"marketplace-ledger/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock transaction controller. Embedding MockDBExecutor
// lets it double as the repository.DBExecutor the services type-assert for.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// txFuncs returns injected begin/commit/rollback functions bound to ctrl.
func txFuncs(ctrl *MockTxController) (db.BeginTxFunc, db.CommitTxFunc, db.RollbackTxFunc) {
	begin := func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
		return ctrl, nil
	}
	commit := func(tx db.TxController) error {
		return ctrl.Commit()
	}
	rollback := func(tx db.TxController) {
		_ = ctrl.Rollback()
	}
	return begin, commit, rollback
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByUserIDForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) SaveBalances(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

// MockEntryRepository is a mock implementation of repository.EntryRepository.
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, q, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) GetEntriesByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	args := m.Called(ctx, q, walletID, limit, offset)
	return args.Get(0).([]domain.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockEntryRepository) SumEntryAmounts(ctx context.Context, q repository.DBExecutor, walletID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, q, walletID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockAccountingRepository is a mock implementation of
// repository.AccountingRepository.
type MockAccountingRepository struct {
	mock.Mock
}

func (m *MockAccountingRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, tx *domain.AccountingTransaction) error {
	args := m.Called(ctx, q, tx)
	return args.Error(0)
}

func (m *MockAccountingRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.AccountingTransaction, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingTransaction), args.Error(1)
}

func (m *MockAccountingRepository) ListTransactions(ctx context.Context, q repository.DBExecutor, filter repository.ListFilter, limit, offset int) ([]repository.AccountingListRow, int64, error) {
	args := m.Called(ctx, q, filter, limit, offset)
	return args.Get(0).([]repository.AccountingListRow), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountingRepository) UpdateStatus(ctx context.Context, q repository.DBExecutor, tx *domain.AccountingTransaction, fromStatus domain.AccountingStatus) (bool, error) {
	args := m.Called(ctx, q, tx, fromStatus)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountingRepository) AggregateTotals(ctx context.Context, q repository.DBExecutor) (*repository.AccountingTotals, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.AccountingTotals), args.Error(1)
}

func (m *MockAccountingRepository) SumPendingWithdrawals(ctx context.Context, q repository.DBExecutor) (decimal.Decimal, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountingRepository) MonthlyRevenue(ctx context.Context, q repository.DBExecutor, since time.Time) ([]domain.RevenuePoint, error) {
	args := m.Called(ctx, q, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RevenuePoint), args.Error(1)
}

// MockSnapshotRepository is a mock implementation of
// repository.SnapshotRepository.
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) CreateSnapshot(ctx context.Context, q repository.DBExecutor, snapshot *domain.BalanceSnapshot) (bool, error) {
	args := m.Called(ctx, q, snapshot)
	return args.Bool(0), args.Error(1)
}

func (m *MockSnapshotRepository) GetSnapshotByDate(ctx context.Context, q repository.DBExecutor, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, error) {
	args := m.Called(ctx, q, period, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Error(1)
}

func (m *MockSnapshotRepository) GetLatestSnapshot(ctx context.Context, q repository.DBExecutor, period domain.PeriodType) (*domain.BalanceSnapshot, error) {
	args := m.Called(ctx, q, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Error(1)
}

// MockPartyRepository is a mock implementation of repository.PartyRepository.
type MockPartyRepository struct {
	mock.Mock
}

func (m *MockPartyRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockPartyRepository) GetProviderByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.ServiceProvider, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceProvider), args.Error(1)
}

// MockSnapshotEngine is a mock implementation of SnapshotEngine.
type MockSnapshotEngine struct {
	mock.Mock
}

func (m *MockSnapshotEngine) CreateSnapshot(ctx context.Context, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, bool, error) {
	args := m.Called(ctx, period, date)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Bool(1), args.Error(2)
}

func (m *MockSnapshotEngine) GetLatest(ctx context.Context, period domain.PeriodType) (*domain.BalanceSnapshot, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Error(1)
}

func (m *MockSnapshotEngine) GetByDate(ctx context.Context, period domain.PeriodType, date time.Time) (*domain.BalanceSnapshot, error) {
	args := m.Called(ctx, period, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSnapshot), args.Error(1)
}

// fakeCache is an in-memory Cache recording deletions, for asserting the
// enumerated invalidation set.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	deleted []string
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}
