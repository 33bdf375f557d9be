package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmoura/carteira/internal/models"
	"github.com/dmoura/carteira/internal/repository"
	"github.com/dmoura/carteira/internal/service/ledger"
)

// Summary is the wallet view the storefront shows: live balances plus
// reservation aggregates. The aggregates are recomputed from the
// reservations table on every call so they can't drift from the
// blocked balance.
type Summary struct {
	Wallet   models.Wallet
	ByStatus []models.StatusSummary

	// Reservations still blocking funds ("na caixinha")
	InBoxCount int64
	InBoxTotal decimal.Decimal
}

type WalletService struct {
	// Repository to access long term data
	storage repository.Storage
}

func NewService(storage repository.Storage) *WalletService {
	return &WalletService{storage: storage}
}

func (s *WalletService) GetWallet(ctx context.Context, resellerID uuid.UUID) (models.Wallet, error) {
	return s.storage.Wallet().GetWalletByReseller(ctx, resellerID)
}

func (s *WalletService) GetSummary(ctx context.Context, walletID uuid.UUID) (Summary, error) {
	var summary Summary

	wallet, err := s.storage.Wallet().GetWallet(ctx, walletID, false)
	if err != nil {
		return summary, err
	}

	byStatus, err := s.storage.Reservation().SummarizeByStatus(ctx, walletID)
	if err != nil {
		return summary, err
	}

	summary = Summary{
		Wallet:     wallet,
		ByStatus:   byStatus,
		InBoxTotal: decimal.Zero,
	}

	for _, group := range byStatus {
		if group.Status == models.ReservationReserved || group.Status == models.ReservationSeparating {
			summary.InBoxCount += group.Count
			summary.InBoxTotal = summary.InBoxTotal.Add(group.Total)
		}
	}

	return summary, nil
}

func (s *WalletService) ListTransactions(ctx context.Context, walletID uuid.UUID, types []string) ([]models.Transaction, error) {
	return s.storage.Wallet().ListTransactions(ctx, walletID, types)
}

// Debit spends available funds directly, outside of the reservation
// flow (manual adjustments by back-office operators).
func (s *WalletService) Debit(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (models.Wallet, error) {
	var wallet models.Wallet

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		wallet, _, err = ledger.DebitAvailable(ctx, st, walletID, amount, ledger.Ref{})
		return err
	})

	return wallet, err
}
