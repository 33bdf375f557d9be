// Package ledger implements the balance mutations of a wallet: every
// operation locks the wallet row, validates against the live balances,
// writes them back and appends exactly one immutable transaction.
//
// All functions expect a repository.Storage already bound to a database
// transaction (see repository.Storage.InTx). The caller's transaction is
// both the atomicity unit and the rollback unit: if anything fails the
// wallet and its log stay untouched.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/models"
	"github.com/dmoura/carteira/internal/repository"
)

// Ref links a transaction to the entity that caused it.
type Ref struct {
	ReservationID *uuid.UUID
	RechargeID    *uuid.UUID
}

// Credit increases the available balance. Used for confirmed recharges.
func Credit(ctx context.Context, st repository.Storage, walletID uuid.UUID, amount decimal.Decimal, transactionType string, ref Ref) (models.Wallet, models.Transaction, error) {
	return apply(ctx, st, walletID, amount, transactionType, ref, func(w *models.Wallet) error {
		w.Balance = w.Balance.Add(amount)
		return nil
	})
}

// DebitAvailable decreases the available balance.
func DebitAvailable(ctx context.Context, st repository.Storage, walletID uuid.UUID, amount decimal.Decimal, ref Ref) (models.Wallet, models.Transaction, error) {
	return apply(ctx, st, walletID, amount, models.TransactionTypeDebit, ref, func(w *models.Wallet) error {
		if amount.GreaterThan(w.Balance) {
			return apperrors.ErrInsufficientFunds
		}
		w.Balance = w.Balance.Sub(amount)
		return nil
	})
}

// Hold moves amount from available to blocked without changing the
// wallet's total wealth.
func Hold(ctx context.Context, st repository.Storage, walletID uuid.UUID, amount decimal.Decimal, ref Ref) (models.Wallet, models.Transaction, error) {
	return apply(ctx, st, walletID, amount, models.TransactionTypeHold, ref, func(w *models.Wallet) error {
		if amount.GreaterThan(w.Balance) {
			return apperrors.ErrInsufficientFunds
		}
		w.Balance = w.Balance.Sub(amount)
		w.Blocked = w.Blocked.Add(amount)
		return nil
	})
}

// ReleaseHold reverses a hold on cancellation, restoring amount to the
// available balance.
func ReleaseHold(ctx context.Context, st repository.Storage, walletID uuid.UUID, amount decimal.Decimal, ref Ref) (models.Wallet, models.Transaction, error) {
	return apply(ctx, st, walletID, amount, models.TransactionTypeRefund, ref, func(w *models.Wallet) error {
		if amount.GreaterThan(w.Blocked) {
			return fmt.Errorf("release exceeds blocked balance: %w", apperrors.ErrInvalidState)
		}
		w.Blocked = w.Blocked.Sub(amount)
		w.Balance = w.Balance.Add(amount)
		return nil
	})
}

// SettleHold consumes a hold when the reservation completes. The
// available balance stays as is, only blocked funds are spent.
func SettleHold(ctx context.Context, st repository.Storage, walletID uuid.UUID, amount decimal.Decimal, ref Ref) (models.Wallet, models.Transaction, error) {
	return apply(ctx, st, walletID, amount, models.TransactionTypeSettle, ref, func(w *models.Wallet) error {
		if amount.GreaterThan(w.Blocked) {
			return fmt.Errorf("settlement exceeds blocked balance: %w", apperrors.ErrInvalidState)
		}
		w.Blocked = w.Blocked.Sub(amount)
		return nil
	})
}

// apply is the read-balance -> validate -> write-balance -> append
// sequence every ledger operation shares. The FOR UPDATE read at the
// start serializes concurrent operations per wallet.
func apply(ctx context.Context, st repository.Storage, walletID uuid.UUID, amount decimal.Decimal, transactionType string, ref Ref, mutate func(*models.Wallet) error) (models.Wallet, models.Transaction, error) {
	var transaction models.Transaction

	wallet, err := st.Wallet().GetWallet(ctx, walletID, true)
	if err != nil {
		return wallet, transaction, err
	}

	if wallet.Status != models.WalletStatusActive {
		return wallet, transaction, apperrors.ErrWalletSuspended
	}

	if !amount.IsPositive() {
		return wallet, transaction, fmt.Errorf("amount must be positive: %w", apperrors.ErrInvalidAmount)
	}

	if err := mutate(&wallet); err != nil {
		return wallet, transaction, err
	}

	wallet, err = st.Wallet().UpdateBalances(ctx, wallet.ID, wallet.Balance, wallet.Blocked)
	if err != nil {
		return wallet, transaction, err
	}

	transaction, err = st.Wallet().CreateTransaction(ctx, models.Transaction{
		WalletID:      wallet.ID,
		Type:          transactionType,
		Amount:        amount,
		BalanceAfter:  wallet.Balance,
		ReservationID: ref.ReservationID,
		RechargeID:    ref.RechargeID,
	})
	if err != nil {
		return wallet, transaction, err
	}

	return wallet, transaction, nil
}
