package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/handlers/render"
	"github.com/dmoura/carteira/internal/logger"
	"github.com/dmoura/carteira/internal/models"
)

type tokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func toTokenPairResponse(pair models.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:      pair.Access.Value,
		AccessExpiresAt:  pair.Access.ExpiresAt,
		RefreshToken:     pair.Refresh.Value,
		RefreshExpiresAt: pair.Refresh.ExpiresAt,
	}
}

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := as.Register(r.Context(), data.Login, data.Password)

		switch {
		case err == nil:
			render.JSONWithStatus(w, toTokenPairResponse(pair), http.StatusCreated)
		case errors.Is(err, apperrors.ErrResellerAlreadyExists):
			render.ServiceError(w, "Reseller already exists", http.StatusConflict)
		default:
			l.Error("Failed to register reseller", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := as.Login(r.Context(), data.Login, data.Password)

		switch {
		case err == nil:
			render.JSON(w, toTokenPairResponse(pair))
		case errors.Is(err, apperrors.ErrResellerNotFound):
			render.ServiceError(w, "Invalid login or password", http.StatusUnauthorized)
		default:
			l.Error("Failed to login reseller", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := as.Refresh(r.Context(), data.RefreshToken)

		switch {
		case err == nil:
			render.JSON(w, toTokenPairResponse(pair))
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrRefreshTokenIsUsed), errors.Is(err, apperrors.ErrRefreshTokenNotFound):
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
		default:
			l.Error("Failed to refresh tokens", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
