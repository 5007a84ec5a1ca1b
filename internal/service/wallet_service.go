// internal/service/wallet_service.go
package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-ledger/internal/domain"
	"marketplace-ledger/internal/repository"
	"marketplace-ledger/internal/util"
	"marketplace-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

// WalletService defines the interface for wallet-related business logic.
// Every mutating operation runs as one atomic unit: the wallet row is locked,
// the balance check and update happen under that lock, and exactly one ledger
// entry is appended before commit.
type WalletService interface {
	FindOrCreateWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	Deposit(ctx context.Context, userID int64, amount decimal.Decimal, description string, ref *domain.EntryReference) (*domain.Wallet, *domain.LedgerEntry, error)
	Withdraw(ctx context.Context, userID int64, amount decimal.Decimal, description string, ref *domain.EntryReference) (*domain.Wallet, *domain.LedgerEntry, error)
	Spend(ctx context.Context, userID int64, amount decimal.Decimal, orderID int64, description string) (*domain.Wallet, *domain.LedgerEntry, error)
	DepositGift(ctx context.Context, userID int64, amount decimal.Decimal, description string, ref *domain.EntryReference) (*domain.Wallet, *domain.LedgerEntry, error)
	// WithdrawGift debits the gift balance. Insufficient gift balance is an
	// expected, recoverable outcome for callers and is reported as ok=false
	// with a nil error rather than ErrInsufficientBalance.
	WithdrawGift(ctx context.Context, userID int64, amount decimal.Decimal, description string, ref *domain.EntryReference) (*domain.Wallet, *domain.LedgerEntry, bool, error)
	GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	GetLedger(ctx context.Context, userID int64, limit, offset int) ([]domain.LedgerEntry, int64, error)
	// Reconcile compares the sum of a wallet's ledger entries with its
	// current balance.
	Reconcile(ctx context.Context, userID int64) (balance, ledgerSum decimal.Decimal, consistent bool, err error)
}

// walletService implements the WalletService interface.
type walletService struct {
	dbBeginner db.DBTxBeginner       // For starting transactions (e.g. *sqlx.DB)
	dbExecutor repository.DBExecutor // For non-transactional reads
	walletRepo repository.WalletRepository
	entryRepo  repository.EntryRepository
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	entryRepo repository.EntryRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) WalletService {
	return &walletService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		walletRepo: walletRepo,
		entryRepo:  entryRepo,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// begin opens a transaction and returns it as both controller and executor.
func (s *walletService) begin(ctx context.Context) (db.TxController, repository.DBExecutor, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		s.rollbackTx(txController)
		return nil, nil, fmt.Errorf("transaction controller does not implement DBExecutor")
	}
	return txController, txExecutor, nil
}

// lockOrCreateWallet returns the user's wallet locked for update, creating it
// lazily with zeroed totals on first reference.
func (s *walletService) lockOrCreateWallet(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByUserIDForUpdate(ctx, q, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, err
	}
	wallet = domain.NewWallet(userID)
	if err := s.walletRepo.CreateWallet(ctx, q, wallet); err != nil {
		if errors.Is(err, util.ErrDuplicateEntry) {
			// Lost the create race; block on the winner's lock and load
			// its committed row.
			return s.walletRepo.GetWalletByUserIDForUpdate(ctx, q, userID)
		}
		return nil, err
	}
	return wallet, nil
}

// FindOrCreateWallet returns the existing wallet for userID or atomically
// creates one with all totals zeroed and is_active = true.
func (s *walletService) FindOrCreateWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("find or create wallet: %w", err)
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("find or create wallet: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err = s.lockOrCreateWallet(ctx, txExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("find or create wallet: %w", err)
	}
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("find or create wallet: %w", err)
	}
	return wallet, nil
}

// Deposit increments balance and total_deposit and appends a deposit entry.
func (s *walletService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal, description string, ref *domain.EntryReference) (*domain.Wallet, *domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidAmount
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err := s.lockOrCreateWallet(ctx, txExecutor, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit: %w", err)
	}
	if !wallet.IsActive {
		return nil, nil, util.ErrWalletInactive
	}

	wallet.Balance = wallet.Balance.Add(amount)
	wallet.TotalDeposit = wallet.TotalDeposit.Add(amount)
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, nil, fmt.Errorf("deposit: %w", err)
	}

	entry := domain.NewLedgerEntry(wallet.ID, amount, domain.EntryTypeDeposit, description, ref, wallet.Balance)
	if err := s.entryRepo.CreateEntry(ctx, txExecutor, entry); err != nil {
		return nil, nil, fmt.Errorf("deposit: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("deposit: %w", err)
	}
	return wallet, entry, nil
}

// Withdraw decrements balance and increments total_withdrawal after the
// sufficient-balance check, appending a withdrawal entry.
func (s *walletService) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal, description string, ref *domain.EntryReference) (*domain.Wallet, *domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidAmount
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("withdraw: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err := s.walletRepo.GetWalletByUserIDForUpdate(ctx, txExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, nil, util.ErrWalletNotFound
		}
		return nil, nil, fmt.Errorf("withdraw: %w", err)
	}
	if !wallet.IsActive {
		return nil, nil, util.ErrWalletInactive
	}
	if wallet.Balance.LessThan(amount) {
		return nil, nil, util.ErrInsufficientBalance
	}

	wallet.Balance = wallet.Balance.Sub(amount)
	wallet.TotalWithdrawal = wallet.TotalWithdrawal.Add(amount)
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, nil, fmt.Errorf("withdraw: %w", err)
	}

	entry := domain.NewLedgerEntry(wallet.ID, amount.Neg(), domain.EntryTypeWithdrawal, description, ref, wallet.Balance)
	if err := s.entryRepo.CreateEntry(ctx, txExecutor, entry); err != nil {
		return nil, nil, fmt.Errorf("withdraw: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("withdraw: %w", err)
	}
	return wallet, entry, nil
}

// Spend pays for an order from the wallet balance, incrementing total_spent
// and tagging the payment entry with the order reference.
func (s *walletService) Spend(ctx context.Context, userID int64, amount decimal.Decimal, orderID int64, description string) (*domain.Wallet, *domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidAmount
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("spend: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err := s.walletRepo.GetWalletByUserIDForUpdate(ctx, txExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, nil, util.ErrWalletNotFound
		}
		return nil, nil, fmt.Errorf("spend: %w", err)
	}
	if !wallet.IsActive {
		return nil, nil, util.ErrWalletInactive
	}
	if wallet.Balance.LessThan(amount) {
		return nil, nil, util.ErrInsufficientBalance
	}

	wallet.Balance = wallet.Balance.Sub(amount)
	wallet.TotalSpent = wallet.TotalSpent.Add(amount)
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, nil, fmt.Errorf("spend: %w", err)
	}

	ref := &domain.EntryReference{Type: "order", ID: orderID}
	entry := domain.NewLedgerEntry(wallet.ID, amount.Neg(), domain.EntryTypePayment, description, ref, wallet.Balance)
	if err := s.entryRepo.CreateEntry(ctx, txExecutor, entry); err != nil {
		return nil, nil, fmt.Errorf("spend: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("spend: %w", err)
	}
	return wallet, entry, nil
}

// DepositGift credits the separately tracked gift balance, used for referral
// and promotional rewards.
func (s *walletService) DepositGift(ctx context.Context, userID int64, amount decimal.Decimal, description string, ref *domain.EntryReference) (*domain.Wallet, *domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidAmount
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit gift: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err := s.lockOrCreateWallet(ctx, txExecutor, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("deposit gift: %w", err)
	}
	if !wallet.IsActive {
		return nil, nil, util.ErrWalletInactive
	}

	wallet.GiftBalance = wallet.GiftBalance.Add(amount)
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, nil, fmt.Errorf("deposit gift: %w", err)
	}

	entry := domain.NewLedgerEntry(wallet.ID, amount, domain.EntryTypeGift, description, ref, wallet.GiftBalance)
	if err := s.entryRepo.CreateEntry(ctx, txExecutor, entry); err != nil {
		return nil, nil, fmt.Errorf("deposit gift: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("deposit gift: %w", err)
	}
	return wallet, entry, nil
}

// WithdrawGift debits the gift balance. A shortfall returns ok=false with a
// nil error; callers treat it as normal control flow, not a failure.
func (s *walletService) WithdrawGift(ctx context.Context, userID int64, amount decimal.Decimal, description string, ref *domain.EntryReference) (*domain.Wallet, *domain.LedgerEntry, bool, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, false, util.ErrInvalidAmount
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, nil, false, fmt.Errorf("withdraw gift: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err := s.walletRepo.GetWalletByUserIDForUpdate(ctx, txExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, nil, false, util.ErrWalletNotFound
		}
		return nil, nil, false, fmt.Errorf("withdraw gift: %w", err)
	}
	if !wallet.IsActive {
		return nil, nil, false, util.ErrWalletInactive
	}
	if wallet.GiftBalance.LessThan(amount) {
		return nil, nil, false, nil
	}

	wallet.GiftBalance = wallet.GiftBalance.Sub(amount)
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, nil, false, fmt.Errorf("withdraw gift: %w", err)
	}

	entry := domain.NewLedgerEntry(wallet.ID, amount.Neg(), domain.EntryTypeGift, description, ref, wallet.GiftBalance)
	if err := s.entryRepo.CreateEntry(ctx, txExecutor, entry); err != nil {
		return nil, nil, false, fmt.Errorf("withdraw gift: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, false, fmt.Errorf("withdraw gift: %w", err)
	}
	return wallet, entry, true, nil
}

// GetWallet retrieves a user's wallet without creating one.
func (s *walletService) GetWallet(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return wallet, nil
}

// GetLedger retrieves a paginated ledger for the user's wallet.
func (s *walletService) GetLedger(ctx context.Context, userID int64, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, 0, util.ErrWalletNotFound
		}
		return nil, 0, fmt.Errorf("get ledger: %w", err)
	}

	entries, totalCount, err := s.entryRepo.GetEntriesByWalletID(ctx, s.dbExecutor, wallet.ID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get ledger: %w", err)
	}
	return entries, totalCount, nil
}

// Reconcile checks that the sum of the wallet's ledger entries matches its
// current balance.
func (s *walletService) Reconcile(ctx context.Context, userID int64) (decimal.Decimal, decimal.Decimal, bool, error) {
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return decimal.Zero, decimal.Zero, false, util.ErrWalletNotFound
		}
		return decimal.Zero, decimal.Zero, false, fmt.Errorf("reconcile: %w", err)
	}

	sum, err := s.entryRepo.SumEntryAmounts(ctx, s.dbExecutor, wallet.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, fmt.Errorf("reconcile: %w", err)
	}
	return wallet.Balance, sum, wallet.Balance.Equal(sum), nil
}
