package recharge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/models"
	"github.com/dmoura/carteira/internal/repository"
	"github.com/dmoura/carteira/internal/service/ledger"
	"github.com/dmoura/carteira/internal/service/pix"
)

const (
	defaultMinAmount = "150"
	defaultMaxAmount = "5000"
	defaultWindow    = 30 * time.Minute
)

type Config struct {
	// Allowed recharge bounds, inclusive on both ends
	// If not set defaults are used
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal

	// How long the PIX code stays payable
	Window time.Duration
}

type RechargeService struct {
	storage  repository.Storage
	provider pix.Provider

	minAmount decimal.Decimal
	maxAmount decimal.Decimal
	window    time.Duration
}

func NewService(cfg Config, storage repository.Storage, provider pix.Provider) *RechargeService {
	if cfg.MinAmount.IsZero() {
		cfg.MinAmount = decimal.RequireFromString(defaultMinAmount)
	}
	if cfg.MaxAmount.IsZero() {
		cfg.MaxAmount = decimal.RequireFromString(defaultMaxAmount)
	}
	if cfg.Window == 0 {
		cfg.Window = defaultWindow
	}
	if provider == nil {
		provider = pix.LocalProvider{}
	}

	return &RechargeService{
		storage:   storage,
		provider:  provider,
		minAmount: cfg.MinAmount,
		maxAmount: cfg.MaxAmount,
		window:    cfg.Window,
	}
}

// Create registers a pending recharge with a fresh PIX charge attached.
// Amounts outside the allowed bounds fail with
// apperrors.ErrInvalidAmount before anything touches the ledger.
func (s *RechargeService) Create(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (models.Recharge, error) {
	var recharge models.Recharge

	if amount.LessThan(s.minAmount) || amount.GreaterThan(s.maxAmount) {
		return recharge, fmt.Errorf(
			"recharge amount must be between %s and %s: %w",
			s.minAmount.StringFixed(2), s.maxAmount.StringFixed(2), apperrors.ErrInvalidAmount,
		)
	}

	wallet, err := s.storage.Wallet().GetWallet(ctx, walletID, false)
	if err != nil {
		return recharge, err
	}
	if wallet.Status != models.WalletStatusActive {
		return recharge, apperrors.ErrWalletSuspended
	}

	expiresAt := time.Now().Add(s.window)
	charge, err := s.provider.CreateCharge(ctx, amount, expiresAt)
	if err != nil {
		return recharge, fmt.Errorf("can't create pix charge. Err: %w", err)
	}

	return s.storage.Recharge().Create(ctx, models.Recharge{
		WalletID:     walletID,
		Amount:       amount,
		Status:       models.RechargePending,
		PixCode:      charge.Code,
		PixQRCode:    charge.QRCodeBase64,
		PixExpiresAt: expiresAt,
	})
}

// Confirm applies the external payment confirmation: credits the
// ledger and marks the recharge terminal as one atomic effect.
//
// Safe under at-least-once delivery: the recharge row is locked and
// re-checked inside the transaction, and the ledger carries a unique
// index on the recharge reference, so a duplicate confirmation fails
// with apperrors.ErrRechargeAlreadyConfirmed and credits nothing.
func (s *RechargeService) Confirm(ctx context.Context, rechargeID uuid.UUID) (models.Recharge, error) {
	var recharge models.Recharge

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		current, err := st.Recharge().Get(ctx, rechargeID, true)
		if err != nil {
			return err
		}

		switch current.EffectiveStatus(time.Now()) {
		case models.RechargeConfirmed:
			return apperrors.ErrRechargeAlreadyConfirmed
		case models.RechargeExpired:
			return fmt.Errorf("%w: %w", apperrors.ErrRechargeExpired, apperrors.ErrInvalidState)
		}

		_, _, err = ledger.Credit(ctx, st, current.WalletID, current.Amount, models.TransactionTypeRecharge, ledger.Ref{RechargeID: &current.ID})
		if err != nil {
			return err
		}

		recharge, err = st.Recharge().MarkConfirmed(ctx, rechargeID, time.Now())
		return err
	})
	if err != nil {
		return models.Recharge{}, err
	}

	return recharge, nil
}

// List returns the wallet's recharges with statuses as readers must
// see them: pending rows past expiry come back EXPIRADO.
func (s *RechargeService) List(ctx context.Context, walletID uuid.UUID) ([]models.Recharge, error) {
	recharges, err := s.storage.Recharge().List(ctx, walletID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range recharges {
		recharges[i].Status = recharges[i].EffectiveStatus(now)
	}

	return recharges, nil
}

// GetPending returns the earliest recharge the reseller can still pay.
func (s *RechargeService) GetPending(ctx context.Context, walletID uuid.UUID) (models.Recharge, error) {
	return s.storage.Recharge().GetEarliestPending(ctx, walletID, time.Now())
}
