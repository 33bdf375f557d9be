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

type reservationResponse struct {
	ID         string    `json:"id"`
	ProdutoRef string    `json:"produto_ref"`
	Quantidade int32     `json:"quantidade"`
	PrecoTotal float64   `json:"preco_total"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func toReservationResponse(r models.Reservation) reservationResponse {
	preco, _ := r.TotalPrice.Float64()
	return reservationResponse{
		ID:         r.ID.String(),
		ProdutoRef: r.ProductRef,
		Quantidade: r.Quantity,
		PrecoTotal: preco,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	}
}

func handleCreateReservation(rs reservationService, ws walletService, l logger.Logger) http.Handler {
	type request struct {
		ProdutoRef string          `json:"produto_ref" validate:"required"`
		Quantidade int32           `json:"quantidade" validate:"required,gt=0"`
		PrecoTotal decimal.Decimal `json:"preco_total" validate:"required,gt=0"`
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

		reservation, err := rs.Create(r.Context(), wallet.ID, data.ProdutoRef, data.Quantidade, data.PrecoTotal)

		switch {
		case err == nil:
			render.JSONWithStatus(w, toReservationResponse(reservation), http.StatusCreated)
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrWalletSuspended):
			render.ServiceError(w, "Wallet is suspended", http.StatusConflict)
		case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			l.Error("Failed to create reservation", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListReservations(rs reservationService, ws walletService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := walletFromRequest(w, r, ws, l)
		if !ok {
			return
		}

		var statuses []string
		if s := r.URL.Query().Get("status"); s != "" {
			statuses = []string{s}
		}

		reservations, err := rs.List(r.Context(), wallet.ID, statuses)
		if err != nil {
			l.Error("Failed to list reservations", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out := make([]reservationResponse, 0, len(reservations))
		for _, reservation := range reservations {
			out = append(out, toReservationResponse(reservation))
		}
		render.JSON(w, out)
	})
}

func handleAdvanceReservation(rs reservationService, ws walletService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := walletFromRequest(w, r, ws, l)
		if !ok {
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid reservation id", http.StatusBadRequest)
			return
		}

		reservation, err := rs.Advance(r.Context(), wallet.ID, id)

		switch {
		case err == nil:
			render.JSON(w, toReservationResponse(reservation))
		case errors.Is(err, apperrors.ErrReservationNotFound):
			render.ServiceError(w, "Reservation not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrInvalidState):
			render.ServiceError(w, "Reservation can't advance", http.StatusConflict)
		default:
			l.Error("Failed to advance reservation", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCancelReservation(rs reservationService, ws walletService, l logger.Logger) http.Handler {
	type response struct {
		Reservation reservationResponse `json:"reserva"`
		Refunded    float64             `json:"valor_estornado"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := walletFromRequest(w, r, ws, l)
		if !ok {
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid reservation id", http.StatusBadRequest)
			return
		}

		reservation, refunded, err := rs.Cancel(r.Context(), wallet.ID, id)

		switch {
		case err == nil:
			refundedValue, _ := refunded.Float64()
			render.JSON(w, response{
				Reservation: toReservationResponse(reservation),
				Refunded:    refundedValue,
			})
		case errors.Is(err, apperrors.ErrReservationNotFound):
			render.ServiceError(w, "Reservation not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrInvalidState):
			render.ServiceError(w, "Reservation can't be cancelled", http.StatusConflict)
		default:
			l.Error("Failed to cancel reservation", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
