package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmoura/carteira/internal/logger"
	"github.com/dmoura/carteira/internal/repository/postgres"
	"github.com/dmoura/carteira/internal/service/auth"
	"github.com/dmoura/carteira/internal/service/auth/tokenmanager"
	"github.com/dmoura/carteira/internal/testutil"
)

func Test_AuthHandlers(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run http server with auth handlers attached
	// Production AuthService will be used
	withTx := func(t *testing.T, fn func(url string, auth *auth.AuthService)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.RefreshToken())
			require.NoError(t, err, "token manager should be created without errors")

			s, err := auth.NewService(auth.Config{}, tokenManager, storage)
			require.NoError(t, err, "auth service starting error", err)

			l := logger.NewNoOpLogger()
			mux := http.NewServeMux()
			mux.Handle("POST /register", handleRegister(s, l))
			mux.Handle("POST /login", handleLogin(s, l))
			mux.Handle("POST /refresh", handleTokenRefresh(s, l))

			srv := httptest.NewServer(mux)
			defer srv.Close()

			fn(srv.URL, s)
		})
	}

	post := func(t *testing.T, url string, data string) (*http.Response, string) {
		t.Helper()

		resp, err := http.Post(url, "application/json", strings.NewReader(data))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("register ok", func(t *testing.T) {
		withTx(t, func(url string, auth *auth.AuthService) {
			resp, body := post(t, url+"/register", `{"login": "loja-da-ana", "password": "StrongEnoughPassword"}`)

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", body)

			var pair tokenPairResponse
			require.NoError(t, json.Unmarshal([]byte(body), &pair))
			require.NotEmpty(t, pair.AccessToken, "access token should be issued")
			require.NotEmpty(t, pair.RefreshToken, "refresh token should be issued")
			require.False(t, pair.AccessExpiresAt.IsZero())
			require.False(t, pair.RefreshExpiresAt.IsZero())
		})
	})

	t.Run("register existed reseller fails", func(t *testing.T) {
		withTx(t, func(url string, auth *auth.AuthService) {
			_, err := auth.Register(t.Context(), "loja-da-ana", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/register", `{"login": "loja-da-ana", "password": "StrongEnoughPassword"}`)

			require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Reseller already exists"
				}`, body)
		})
	})

	t.Run("register short password fails", func(t *testing.T) {
		withTx(t, func(url string, auth *auth.AuthService) {
			resp, body := post(t, url+"/register", `{"login": "loja-da-ana", "password": "short"}`)

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "validation_failed")
		})
	})

	t.Run("login ok", func(t *testing.T) {
		withTx(t, func(url string, auth *auth.AuthService) {
			_, err := auth.Register(t.Context(), "loja-da-ana", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/login", `{"login": "loja-da-ana", "password": "StrongEnoughPassword"}`)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			var pair tokenPairResponse
			require.NoError(t, json.Unmarshal([]byte(body), &pair))
			require.NotEmpty(t, pair.AccessToken, "access token should be issued")
			require.NotEmpty(t, pair.RefreshToken, "refresh token should be issued")
		})
	})

	t.Run("login failed", func(t *testing.T) {
		withTx(t, func(url string, auth *auth.AuthService) {
			_, err := auth.Register(t.Context(), "loja-da-ana", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/login", `{"login": "loja-da-ana", "password": "WrongPassword"}`)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Invalid login or password"
				}`, body)
		})
	})

	t.Run("refresh token ok", func(t *testing.T) {
		withTx(t, func(url string, auth *auth.AuthService) {
			initialPair, err := auth.Register(t.Context(), "loja-da-ana", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/refresh", `{"refresh_token": "`+initialPair.Refresh.Value+`"}`)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			var pair tokenPairResponse
			require.NoError(t, json.Unmarshal([]byte(body), &pair))
			require.NotEqual(t, initialPair.Access.Value, pair.AccessToken, "access token should be changed after refresh")
			require.NotEqual(t, initialPair.Refresh.Value, pair.RefreshToken, "refresh token should be changed after refresh")
		})
	})

	t.Run("refresh twice fail", func(t *testing.T) {
		withTx(t, func(url string, auth *auth.AuthService) {
			initialPair, err := auth.Register(t.Context(), "loja-da-ana", "StrongEnoughPassword")
			require.NoError(t, err)

			resp, body := post(t, url+"/refresh", `{"refresh_token": "`+initialPair.Refresh.Value+`"}`)
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			resp, body = post(t, url+"/refresh", `{"refresh_token": "`+initialPair.Refresh.Value+`"}`)

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Refresh token not found"
				}`, body)
		})
	})
}
