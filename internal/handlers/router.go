package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmoura/carteira/internal/handlers/middleware"
	"github.com/dmoura/carteira/internal/logger"
	"github.com/dmoura/carteira/internal/models"
	"github.com/dmoura/carteira/internal/service/wallet"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Shared secret the payment collaborator sends in X-Webhook-Token
	WebhookToken string
}

func NewRouter(
	cfg RouterConfig,
	authSvc authService,
	walletSvc walletService,
	reservationSvc reservationService,
	rechargeSvc rechargeService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authSvc)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	webhookMiddleware := middleware.WebhookAuthMiddleware(cfg.WebhookToken)

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(authSvc, logger))
	api.Handle("POST /auth/login", handleLogin(authSvc, logger))
	api.Handle("POST /auth/refresh", handleTokenRefresh(authSvc, logger))

	api.Handle("GET /wallet", withAuth(handleWalletSummary(walletSvc, logger)))
	api.Handle("GET /wallet/transactions", withAuth(handleListTransactions(walletSvc, logger)))

	api.Handle("POST /wallet/recharges", withAuth(handleCreateRecharge(rechargeSvc, walletSvc, logger)))
	api.Handle("GET /wallet/recharges", withAuth(handleListRecharges(rechargeSvc, walletSvc, logger)))
	api.Handle("GET /wallet/recharges/pending", withAuth(handlePendingRecharge(rechargeSvc, walletSvc, logger)))

	api.Handle("POST /wallet/reservations", withAuth(handleCreateReservation(reservationSvc, walletSvc, logger)))
	api.Handle("GET /wallet/reservations", withAuth(handleListReservations(reservationSvc, walletSvc, logger)))
	api.Handle("POST /wallet/reservations/{id}/advance", withAuth(handleAdvanceReservation(reservationSvc, walletSvc, logger)))
	api.Handle("POST /wallet/reservations/{id}/cancel", withAuth(handleCancelReservation(reservationSvc, walletSvc, logger)))

	api.Handle("POST /webhooks/recharges/{id}/confirm", webhookMiddleware(handleConfirmRecharge(rechargeSvc, logger)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register reseller with login and password, provisioning a wallet
	// Has to return apperrors.ErrResellerAlreadyExists if login is taken
	Register(ctx context.Context, login string, password string) (models.TokenPair, error)

	// Login reseller with login and password
	// Has to return apperrors.ErrResellerNotFound on bad credentials
	Login(ctx context.Context, login string, password string) (models.TokenPair, error)

	// Refresh tokens using single-use refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found or used: apperrors.ErrRefreshTokenNotFound / ErrRefreshTokenIsUsed
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Parse access token and return its reseller
	Authenticate(ctx context.Context, access string) (models.Reseller, error)
}

type walletService interface {
	GetWallet(ctx context.Context, resellerID uuid.UUID) (models.Wallet, error)
	GetSummary(ctx context.Context, walletID uuid.UUID) (wallet.Summary, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, types []string) ([]models.Transaction, error)
}

type reservationService interface {
	Create(ctx context.Context, walletID uuid.UUID, productRef string, quantity int32, totalPrice decimal.Decimal) (models.Reservation, error)
	Advance(ctx context.Context, walletID uuid.UUID, reservationID uuid.UUID) (models.Reservation, error)
	Cancel(ctx context.Context, walletID uuid.UUID, reservationID uuid.UUID) (models.Reservation, decimal.Decimal, error)
	List(ctx context.Context, walletID uuid.UUID, statuses []string) ([]models.Reservation, error)
}

type rechargeService interface {
	Create(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (models.Recharge, error)
	Confirm(ctx context.Context, rechargeID uuid.UUID) (models.Recharge, error)
	List(ctx context.Context, walletID uuid.UUID) ([]models.Recharge, error)
	GetPending(ctx context.Context, walletID uuid.UUID) (models.Recharge, error)
}
