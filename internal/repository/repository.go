package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmoura/carteira/internal/models"
)

// Reseller repository interface
type ResellerRepo interface {
	// Create reseller account
	// If reseller with the login exists already has to return apperrors.ErrResellerAlreadyExists
	CreateReseller(ctx context.Context, login string, hashedPassword string) (models.Reseller, error)

	// Get reseller by id or login
	// If reseller not found must return apperrors.ErrResellerNotFound
	GetResellerByID(ctx context.Context, id uuid.UUID) (models.Reseller, error)
	GetResellerByLogin(ctx context.Context, login string) (models.Reseller, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) error

	// Return the token and mark it used in one shot
	// If the token is already used, must not overwrite 'used_at' and
	// has to return apperrors.ErrRefreshTokenIsUsed
	// If not found: apperrors.ErrRefreshTokenNotFound
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// Wallet repository interface
// Balance mutations are expected to run inside Storage.InTx with the
// wallet row locked first (forUpdate), so concurrent ledger operations
// on the same wallet serialize on the row lock.
type WalletRepo interface {
	// Create zero-balance wallet for the reseller
	// Second wallet for the same reseller must fail
	CreateWallet(ctx context.Context, resellerID uuid.UUID) (models.Wallet, error)

	// Get wallet, optionally locking the row (SELECT ... FOR UPDATE)
	// If wallet not found must return apperrors.ErrWalletNotFound
	GetWallet(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Wallet, error)
	GetWalletByReseller(ctx context.Context, resellerID uuid.UUID) (models.Wallet, error)

	// Overwrite both balances, returns the updated wallet
	UpdateBalances(ctx context.Context, id uuid.UUID, balance decimal.Decimal, blocked decimal.Decimal) (models.Wallet, error)

	// Append immutable ledger record
	// Has to return apperrors.ErrRechargeAlreadyConfirmed if a
	// transaction for the same recharge exists already
	CreateTransaction(ctx context.Context, transaction models.Transaction) (models.Transaction, error)

	// List wallet transactions newest first, optionally filtered by types
	ListTransactions(ctx context.Context, walletID uuid.UUID, types []string) ([]models.Transaction, error)
}

// Reservation repository interface
type ReservationRepo interface {
	Create(ctx context.Context, reservation models.Reservation) (models.Reservation, error)

	// Get reservation, optionally locking the row
	// If not found must return apperrors.ErrReservationNotFound
	Get(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Reservation, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (models.Reservation, error)

	// List wallet reservations newest first, optionally filtered by statuses
	List(ctx context.Context, walletID uuid.UUID, statuses []string) ([]models.Reservation, error)

	// Count and sum reservations grouped by status
	// Always computed from the reservations table, never cached
	SummarizeByStatus(ctx context.Context, walletID uuid.UUID) ([]models.StatusSummary, error)
}

// Recharge repository interface
type RechargeRepo interface {
	Create(ctx context.Context, recharge models.Recharge) (models.Recharge, error)

	// Get recharge, optionally locking the row
	// If not found must return apperrors.ErrRechargeNotFound
	Get(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Recharge, error)

	// Mark pending recharge confirmed
	// Must fail with apperrors.ErrRechargeAlreadyConfirmed if it is confirmed already
	MarkConfirmed(ctx context.Context, id uuid.UUID, confirmedAt time.Time) (models.Recharge, error)

	// List wallet recharges newest first
	List(ctx context.Context, walletID uuid.UUID) ([]models.Recharge, error)

	// Return the earliest still actionable (pending and unexpired) recharge
	// If there is none: apperrors.ErrRechargeNotFound
	GetEarliestPending(ctx context.Context, walletID uuid.UUID, now time.Time) (models.Recharge, error)
}

// Storage bundles all repositories over one database handle.
// InTx runs fn with a Storage bound to a single database transaction:
// returning an error rolls everything back.
type Storage interface {
	Reseller() ResellerRepo
	RefreshToken() RefreshTokenRepo
	Wallet() WalletRepo
	Reservation() ReservationRepo
	Recharge() RechargeRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
