package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/models"
	"github.com/dmoura/carteira/internal/repository"
	"github.com/dmoura/carteira/internal/service/ledger"
)

type ReservationService struct {
	// Repository to access long term data
	storage repository.Storage
}

func NewService(storage repository.Storage) *ReservationService {
	return &ReservationService{storage: storage}
}

// Create places a hold for the full reservation price and registers the
// reservation as RESERVADO, both in one database transaction. Fails
// with apperrors.ErrInsufficientFunds if the wallet can't cover it.
func (s *ReservationService) Create(ctx context.Context, walletID uuid.UUID, productRef string, quantity int32, totalPrice decimal.Decimal) (models.Reservation, error) {
	var reservation models.Reservation

	if productRef == "" {
		return reservation, fmt.Errorf("product reference is required: %w", apperrors.ErrValidation)
	}
	if quantity <= 0 {
		return reservation, fmt.Errorf("quantity must be positive: %w", apperrors.ErrValidation)
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		reservation, err = st.Reservation().Create(ctx, models.Reservation{
			WalletID:   walletID,
			ProductRef: productRef,
			Quantity:   quantity,
			TotalPrice: totalPrice,
			Status:     models.ReservationReserved,
		})
		if err != nil {
			return err
		}

		_, _, err = ledger.Hold(ctx, st, walletID, totalPrice, ledger.Ref{ReservationID: &reservation.ID})
		return err
	})
	if err != nil {
		return models.Reservation{}, err
	}

	return reservation, nil
}

// Advance moves the reservation one step forward:
// RESERVADO -> EM_SEPARACAO -> SEPARADO. The final step settles the
// hold, the blocked funds are spent. Any other transition fails with
// apperrors.ErrInvalidState.
func (s *ReservationService) Advance(ctx context.Context, walletID uuid.UUID, reservationID uuid.UUID) (models.Reservation, error) {
	var reservation models.Reservation

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		current, err := s.getOwned(ctx, st, walletID, reservationID)
		if err != nil {
			return err
		}

		next := current.NextStatus()
		if next == "" {
			return fmt.Errorf("reservation %s can't advance: %w", current.Status, apperrors.ErrInvalidState)
		}

		if next == models.ReservationSeparated {
			_, _, err = ledger.SettleHold(ctx, st, walletID, current.TotalPrice, ledger.Ref{ReservationID: &current.ID})
			if err != nil {
				return err
			}
		}

		reservation, err = st.Reservation().UpdateStatus(ctx, reservationID, next)
		return err
	})
	if err != nil {
		return models.Reservation{}, err
	}

	return reservation, nil
}

// Cancel releases the hold, appends a refund transaction and marks the
// reservation CANCELADA, all atomically. Returns the refunded amount
// for user-facing messaging. Cancelling a SEPARADO or already
// cancelled reservation fails with apperrors.ErrInvalidState and
// refunds nothing.
func (s *ReservationService) Cancel(ctx context.Context, walletID uuid.UUID, reservationID uuid.UUID) (models.Reservation, decimal.Decimal, error) {
	var (
		reservation models.Reservation
		refunded    decimal.Decimal
	)

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		current, err := s.getOwned(ctx, st, walletID, reservationID)
		if err != nil {
			return err
		}

		if current.Terminal() {
			return fmt.Errorf("reservation %s can't be cancelled: %w", current.Status, apperrors.ErrInvalidState)
		}

		_, _, err = ledger.ReleaseHold(ctx, st, walletID, current.TotalPrice, ledger.Ref{ReservationID: &current.ID})
		if err != nil {
			return err
		}

		reservation, err = st.Reservation().UpdateStatus(ctx, reservationID, models.ReservationCancelled)
		if err != nil {
			return err
		}

		refunded = current.TotalPrice
		return nil
	})
	if err != nil {
		return models.Reservation{}, decimal.Zero, err
	}

	return reservation, refunded, nil
}

func (s *ReservationService) List(ctx context.Context, walletID uuid.UUID, statuses []string) ([]models.Reservation, error) {
	return s.storage.Reservation().List(ctx, walletID, statuses)
}

// getOwned locks the reservation row and checks it belongs to the
// wallet. The reservation lock is always taken before the wallet lock,
// so advance and cancel never deadlock each other.
func (s *ReservationService) getOwned(ctx context.Context, st repository.Storage, walletID uuid.UUID, reservationID uuid.UUID) (models.Reservation, error) {
	reservation, err := st.Reservation().Get(ctx, reservationID, true)
	if err != nil {
		return reservation, err
	}

	if reservation.WalletID != walletID {
		return reservation, apperrors.ErrReservationNotFound
	}

	return reservation, nil
}
