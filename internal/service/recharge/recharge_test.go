package recharge

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/models"
	"github.com/dmoura/carteira/internal/repository"
	"github.com/dmoura/carteira/internal/repository/postgres"
	"github.com/dmoura/carteira/internal/testutil"
)

func TestRechargeService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	d := decimal.RequireFromString

	withTx := func(t *testing.T, fn func(s *RechargeService, st repository.Storage, wallet models.Wallet)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			reseller, err := storage.Reseller().CreateReseller(t.Context(), "test-reseller", "hash")
			require.NoError(t, err, "creating reseller should not fail")
			wallet, err := storage.Wallet().CreateWallet(t.Context(), reseller.ID)
			require.NoError(t, err, "creating wallet should not fail")

			fn(NewService(Config{}, storage, nil), storage, wallet)
		})
	}

	t.Run("Create", func(t *testing.T) {
		t.Run("create attaches pix charge", func(t *testing.T) {
			withTx(t, func(s *RechargeService, st repository.Storage, wallet models.Wallet) {
				before := time.Now()
				recharge, err := s.Create(t.Context(), wallet.ID, d("150.00"))

				require.NoError(t, err)
				require.Equal(t, models.RechargePending, recharge.Status)
				require.NotEmpty(t, recharge.PixCode, "pix copy-paste code should be set")
				require.NotEmpty(t, recharge.PixQRCode, "pix qr code should be set")
				require.WithinDuration(t, before.Add(30*time.Minute), recharge.PixExpiresAt, 5*time.Second, "default payment window is 30 minutes")

				after, err := st.Wallet().GetWallet(t.Context(), wallet.ID, false)
				require.NoError(t, err)
				require.True(t, after.Balance.IsZero(), "pending recharge must not credit anything")
			})
		})

		t.Run("amount bounds", func(t *testing.T) {
			tests := []struct {
				name    string
				amount  string
				wantErr bool
			}{
				{name: "below min", amount: "149.99", wantErr: true},
				{name: "min ok", amount: "150.00", wantErr: false},
				{name: "max ok", amount: "5000.00", wantErr: false},
				{name: "above max", amount: "5000.01", wantErr: true},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					withTx(t, func(s *RechargeService, st repository.Storage, wallet models.Wallet) {
						_, err := s.Create(t.Context(), wallet.ID, d(tt.amount))

						if tt.wantErr {
							require.ErrorIs(t, err, apperrors.ErrInvalidAmount)
						} else {
							require.NoError(t, err)
						}
					})
				})
			}
		})

		t.Run("suspended wallet fails", func(t *testing.T) {
			testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
				storage := postgres.NewStorage(tx)
				s := NewService(Config{}, storage, nil)

				reseller, err := storage.Reseller().CreateReseller(t.Context(), "test-reseller", "hash")
				require.NoError(t, err)
				wallet, err := storage.Wallet().CreateWallet(t.Context(), reseller.ID)
				require.NoError(t, err)
				_, err = tx.Exec(t.Context(), "UPDATE wallets SET status = $2 WHERE id = $1", wallet.ID, models.WalletStatusSuspended)
				require.NoError(t, err)

				_, err = s.Create(t.Context(), wallet.ID, d("150.00"))

				require.ErrorIs(t, err, apperrors.ErrWalletSuspended)
			})
		})
	})

	t.Run("Confirm", func(t *testing.T) {
		t.Run("confirm credits the wallet", func(t *testing.T) {
			withTx(t, func(s *RechargeService, st repository.Storage, wallet models.Wallet) {
				recharge, err := s.Create(t.Context(), wallet.ID, d("300.00"))
				require.NoError(t, err)

				confirmed, err := s.Confirm(t.Context(), recharge.ID)

				require.NoError(t, err)
				require.Equal(t, models.RechargeConfirmed, confirmed.Status)
				require.NotNil(t, confirmed.ConfirmedAt)

				after, err := st.Wallet().GetWallet(t.Context(), wallet.ID, false)
				require.NoError(t, err)
				require.True(t, after.Balance.Equal(d("300.00")), "confirmed recharge should credit the amount")

				transactions, err := st.Wallet().ListTransactions(t.Context(), wallet.ID, []string{models.TransactionTypeRecharge})
				require.NoError(t, err)
				require.Len(t, transactions, 1)
				require.Equal(t, &recharge.ID, transactions[0].RechargeID, "credit should reference the recharge")
			})
		})

		t.Run("confirm twice credits once", func(t *testing.T) {
			withTx(t, func(s *RechargeService, st repository.Storage, wallet models.Wallet) {
				recharge, err := s.Create(t.Context(), wallet.ID, d("300.00"))
				require.NoError(t, err)

				_, err = s.Confirm(t.Context(), recharge.ID)
				require.NoError(t, err, "first confirm should be ok")

				_, err = s.Confirm(t.Context(), recharge.ID)
				require.ErrorIs(t, err, apperrors.ErrRechargeAlreadyConfirmed, "duplicate webhook delivery must fail")

				after, err := st.Wallet().GetWallet(t.Context(), wallet.ID, false)
				require.NoError(t, err)
				require.True(t, after.Balance.Equal(d("300.00")), "balance must be credited exactly once")
			})
		})

		t.Run("confirm expired fails", func(t *testing.T) {
			withTx(t, func(s *RechargeService, st repository.Storage, wallet models.Wallet) {
				expired, err := st.Recharge().Create(t.Context(), models.Recharge{
					WalletID:     wallet.ID,
					Amount:       d("300.00"),
					PixCode:      "code",
					PixQRCode:    "cXI=",
					PixExpiresAt: time.Now().Add(-time.Minute),
				})
				require.NoError(t, err)

				_, err = s.Confirm(t.Context(), expired.ID)

				require.ErrorIs(t, err, apperrors.ErrRechargeExpired)
				require.ErrorIs(t, err, apperrors.ErrInvalidState)

				after, err := st.Wallet().GetWallet(t.Context(), wallet.ID, false)
				require.NoError(t, err)
				require.True(t, after.Balance.IsZero(), "expired recharge must not credit anything")
			})
		})

		t.Run("confirm nonexistent fails", func(t *testing.T) {
			withTx(t, func(s *RechargeService, st repository.Storage, wallet models.Wallet) {
				_, err := s.Confirm(t.Context(), uuid.New())

				require.ErrorIs(t, err, apperrors.ErrRechargeNotFound)
			})
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("expired shows as EXPIRADO", func(t *testing.T) {
			withTx(t, func(s *RechargeService, st repository.Storage, wallet models.Wallet) {
				_, err := st.Recharge().Create(t.Context(), models.Recharge{
					WalletID:     wallet.ID,
					Amount:       d("300.00"),
					PixCode:      "code",
					PixQRCode:    "cXI=",
					PixExpiresAt: time.Now().Add(-time.Minute),
				})
				require.NoError(t, err)

				recharges, err := s.List(t.Context(), wallet.ID)

				require.NoError(t, err)
				require.Len(t, recharges, 1)
				require.Equal(t, models.RechargeExpired, recharges[0].Status, "reader must see pending rows past expiry as expired")
			})
		})
	})

	t.Run("GetPending", func(t *testing.T) {
		withTx(t, func(s *RechargeService, st repository.Storage, wallet models.Wallet) {
			_, err := s.GetPending(t.Context(), wallet.ID)
			require.ErrorIs(t, err, apperrors.ErrRechargeNotFound, "no pending recharges yet")

			recharge, err := s.Create(t.Context(), wallet.ID, d("150.00"))
			require.NoError(t, err)

			pending, err := s.GetPending(t.Context(), wallet.ID)
			require.NoError(t, err)
			require.Equal(t, recharge.ID, pending.ID)
		})
	})
}

func TestServiceConfig(t *testing.T) {
	t.Parallel()

	t.Run("custom bounds respected", func(t *testing.T) {
		s := NewService(Config{
			MinAmount: decimal.RequireFromString("10"),
			MaxAmount: decimal.RequireFromString("20"),
			Window:    time.Minute,
		}, nil, nil)

		require.True(t, s.minAmount.Equal(decimal.RequireFromString("10")))
		require.True(t, s.maxAmount.Equal(decimal.RequireFromString("20")))
		require.Equal(t, time.Minute, s.window)
	})

	t.Run("defaults applied", func(t *testing.T) {
		s := NewService(Config{}, nil, nil)

		require.True(t, s.minAmount.Equal(decimal.RequireFromString("150")))
		require.True(t, s.maxAmount.Equal(decimal.RequireFromString("5000")))
		require.Equal(t, 30*time.Minute, s.window)
		require.NotNil(t, s.provider, "local provider should be used when none given")
	})
}
