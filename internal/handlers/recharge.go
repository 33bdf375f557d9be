package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/handlers/render"
	"github.com/dmoura/carteira/internal/logger"
	"github.com/dmoura/carteira/internal/models"
)

type rechargeResponse struct {
	ID              string     `json:"id"`
	Valor           float64    `json:"valor"`
	Status          string     `json:"status"`
	PixCopiaCola    string     `json:"pix_copia_cola"`
	PixQRCodeBase64 string     `json:"pix_qrcode_base64"`
	PixExpiracao    time.Time  `json:"pix_expiracao"`
	CreatedAt       time.Time  `json:"created_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
}

func toRechargeResponse(rec models.Recharge) rechargeResponse {
	valor, _ := rec.Amount.Float64()
	return rechargeResponse{
		ID:              rec.ID.String(),
		Valor:           valor,
		Status:          rec.Status,
		PixCopiaCola:    rec.PixCode,
		PixQRCodeBase64: rec.PixQRCode,
		PixExpiracao:    rec.PixExpiresAt,
		CreatedAt:       rec.CreatedAt,
		ConfirmedAt:     rec.ConfirmedAt,
	}
}

func handleCreateRecharge(rs rechargeService, ws walletService, l logger.Logger) http.Handler {
	type request struct {
		Valor decimal.Decimal `json:"valor" validate:"required,gt=0"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := walletFromRequest(w, r, ws, l)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		recharge, err := rs.Create(r.Context(), wallet.ID, data.Valor)

		switch {
		case err == nil:
			render.JSONWithStatus(w, toRechargeResponse(recharge), http.StatusCreated)
		case errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrWalletSuspended):
			render.ServiceError(w, "Wallet is suspended", http.StatusConflict)
		default:
			l.Error("Failed to create recharge", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListRecharges(rs rechargeService, ws walletService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := walletFromRequest(w, r, ws, l)
		if !ok {
			return
		}

		recharges, err := rs.List(r.Context(), wallet.ID)
		if err != nil {
			l.Error("Failed to list recharges", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out := make([]rechargeResponse, 0, len(recharges))
		for _, recharge := range recharges {
			out = append(out, toRechargeResponse(recharge))
		}
		render.JSON(w, out)
	})
}

func handlePendingRecharge(rs rechargeService, ws walletService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := walletFromRequest(w, r, ws, l)
		if !ok {
			return
		}

		recharge, err := rs.GetPending(r.Context(), wallet.ID)

		switch {
		case err == nil:
			render.JSON(w, toRechargeResponse(recharge))
		case errors.Is(err, apperrors.ErrRechargeNotFound):
			render.ServiceError(w, "No pending recharge", http.StatusNotFound)
		default:
			l.Error("Failed to get pending recharge", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// handleConfirmRecharge is the payment collaborator's webhook: it is
// delivered at least once, so duplicate confirmations come back 409
// without touching the ledger again.
func handleConfirmRecharge(rs rechargeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid recharge id", http.StatusBadRequest)
			return
		}

		recharge, err := rs.Confirm(r.Context(), id)

		switch {
		case err == nil:
			render.JSON(w, toRechargeResponse(recharge))
		case errors.Is(err, apperrors.ErrRechargeNotFound):
			render.ServiceError(w, "Recharge not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrRechargeAlreadyConfirmed):
			render.ServiceError(w, "Recharge already confirmed", http.StatusConflict)
		case errors.Is(err, apperrors.ErrRechargeExpired):
			render.ServiceError(w, "Recharge is expired", http.StatusConflict)
		default:
			l.Error("Failed to confirm recharge", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
