package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

const createWallet = `-- name: CreateWallet
INSERT INTO wallets (id, reseller_id, balance, blocked, status)
VALUES ($1, $2, 0, 0, $3)
RETURNING id, reseller_id, created_at, balance, blocked, status
`

func (r *WalletRepo) CreateWallet(ctx context.Context, resellerID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, createWallet, uuid.New(), resellerID, models.WalletStatusActive)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return wallet, fmt.Errorf("reseller wallet already exists: %w", err)
		}

		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

const getWallet = `-- name: GetWallet
SELECT id, reseller_id, created_at, balance, blocked, status FROM wallets
WHERE id = $1
`

// GetWallet returns the wallet, locking its row when forUpdate is set.
// The row lock is the per-wallet serialization point: every ledger
// mutation takes it first, so operations on one wallet never interleave.
func (r *WalletRepo) GetWallet(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Wallet, error) {
	query := getWallet
	if forUpdate {
		query += "FOR UPDATE\n"
	}

	rows, _ := r.DB.Query(ctx, query, id)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const getWalletByReseller = `-- name: GetWalletByReseller
SELECT id, reseller_id, created_at, balance, blocked, status FROM wallets
WHERE reseller_id = $1
`

func (r *WalletRepo) GetWalletByReseller(ctx context.Context, resellerID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getWalletByReseller, resellerID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const updateBalances = `-- name: UpdateBalances
UPDATE wallets
SET balance = $2, blocked = $3
WHERE id = $1
RETURNING id, reseller_id, created_at, balance, blocked, status
`

func (r *WalletRepo) UpdateBalances(ctx context.Context, id uuid.UUID, balance decimal.Decimal, blocked decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, updateBalances, id, balance, blocked)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO wallet_transactions (id, wallet_id, created_at, type, amount, balance_after, reservation_id, recharge_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, wallet_id, created_at, type, amount, balance_after, reservation_id, recharge_id
`

func (r *WalletRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createTransaction, t.ID, t.WalletID, t.CreatedAt, t.Type, t.Amount, t.BalanceAfter, t.ReservationID, t.RechargeID)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// The partial unique index on recharge_id fired: this
			// recharge credited the wallet already
			return transaction, apperrors.ErrRechargeAlreadyConfirmed
		}

		return transaction, fmt.Errorf("db error: %w", err)
	}

	return transaction, nil
}

const listTransactions = `-- name: ListTransactions
SELECT id, wallet_id, created_at, type, amount, balance_after, reservation_id, recharge_id
FROM wallet_transactions
WHERE wallet_id = $1 AND ($2::text[] IS NULL OR type = ANY($2))
ORDER BY created_at DESC, id
`

func (r *WalletRepo) ListTransactions(ctx context.Context, walletID uuid.UUID, types []string) ([]models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactions, walletID, types)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.ResellerID, &w.CreatedAt, &w.Balance, &w.Blocked, &w.Status)
	return w, err
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.WalletID, &t.CreatedAt, &t.Type, &t.Amount, &t.BalanceAfter, &t.ReservationID, &t.RechargeID)
	return t, err
}
