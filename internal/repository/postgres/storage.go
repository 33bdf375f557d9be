package postgres

import (
	"context"
	"fmt"

	"github.com/dmoura/carteira/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) Reseller() repository.ResellerRepo {
	return &ResellerRepo{DB: s.db}
}

func (s *Storage) RefreshToken() repository.RefreshTokenRepo {
	return &RefreshTokenRepo{DB: s.db}
}

func (s *Storage) Wallet() repository.WalletRepo {
	return &WalletRepo{DB: s.db}
}

func (s *Storage) Reservation() repository.ReservationRepo {
	return &ReservationRepo{DB: s.db}
}

func (s *Storage) Recharge() repository.RechargeRepo {
	return &RechargeRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
