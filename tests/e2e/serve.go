package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/dmoura/carteira/internal/handlers"
	"github.com/dmoura/carteira/internal/logger"
	"github.com/dmoura/carteira/internal/repository"
	"github.com/dmoura/carteira/internal/repository/postgres"
	"github.com/dmoura/carteira/internal/service/auth"
	"github.com/dmoura/carteira/internal/service/auth/tokenmanager"
	"github.com/dmoura/carteira/internal/service/recharge"
	"github.com/dmoura/carteira/internal/service/reservation"
	"github.com/dmoura/carteira/internal/service/wallet"
	"github.com/dmoura/carteira/internal/testutil"
)

// Shared token the webhook endpoint expects in tests
const WebhookToken = "test-webhook-token"

type Services struct {
	Storage            repository.Storage
	AuthService        *auth.AuthService
	WalletService      *wallet.WalletService
	ReservationService *reservation.ReservationService
	RechargeService    *recharge.RechargeService
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		storage := postgres.NewStorage(tx)

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.RefreshToken())
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage)
		require.NoError(t, err, "auth service starting error", err)

		ws := wallet.NewService(storage)
		rs := reservation.NewService(storage)
		rcs := recharge.NewService(recharge.Config{}, storage, nil)

		// Complete all together as router
		router := handlers.NewRouter(
			handlers.RouterConfig{WebhookToken: WebhookToken},
			as,
			ws,
			rs,
			rcs,
			logger.NewNoOpLogger(),
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:            storage,
			AuthService:        as,
			WalletService:      ws,
			ReservationService: rs,
			RechargeService:    rcs,
		})
	})
}
