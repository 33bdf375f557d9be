package handlers

import (
	"net/http"
	"time"

	"github.com/dmoura/carteira/internal/handlers/render"
	"github.com/dmoura/carteira/internal/handlers/resellerctx"
	"github.com/dmoura/carteira/internal/logger"
	"github.com/dmoura/carteira/internal/models"
)

// walletFromRequest resolves the authenticated reseller's wallet.
// Writes the error response itself when resolution fails.
func walletFromRequest(w http.ResponseWriter, r *http.Request, ws walletService, l logger.Logger) (models.Wallet, bool) {
	reseller, ok := resellerctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return models.Wallet{}, false
	}

	wallet, err := ws.GetWallet(r.Context(), reseller.ID)
	if err != nil {
		l.Error("Failed to resolve reseller wallet", "error", err, "reseller_id", reseller.ID)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return models.Wallet{}, false
	}

	return wallet, true
}

func handleWalletSummary(ws walletService, l logger.Logger) http.Handler {
	type statusGroup struct {
		Status string  `json:"status"`
		Count  int64   `json:"count"`
		Total  float64 `json:"total"`
	}
	type response struct {
		Saldo          float64       `json:"saldo"`
		SaldoBloqueado float64       `json:"saldo_bloqueado"`
		Status         string        `json:"status"`
		CaixinhaCount  int64         `json:"caixinha_count"`
		CaixinhaTotal  float64       `json:"caixinha_total"`
		PorStatus      []statusGroup `json:"por_status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := walletFromRequest(w, r, ws, l)
		if !ok {
			return
		}

		summary, err := ws.GetSummary(r.Context(), wallet.ID)
		if err != nil {
			l.Error("Failed to get wallet summary", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		saldo, _ := summary.Wallet.Balance.Float64()
		bloqueado, _ := summary.Wallet.Blocked.Float64()
		caixinhaTotal, _ := summary.InBoxTotal.Float64()

		groups := make([]statusGroup, 0, len(summary.ByStatus))
		for _, g := range summary.ByStatus {
			total, _ := g.Total.Float64()
			groups = append(groups, statusGroup{Status: g.Status, Count: g.Count, Total: total})
		}

		render.JSON(w, response{
			Saldo:          saldo,
			SaldoBloqueado: bloqueado,
			Status:         summary.Wallet.Status,
			CaixinhaCount:  summary.InBoxCount,
			CaixinhaTotal:  caixinhaTotal,
			PorStatus:      groups,
		})
	})
}

func handleListTransactions(ws walletService, l logger.Logger) http.Handler {
	type transaction struct {
		ID             string    `json:"id"`
		Tipo           string    `json:"tipo"`
		Valor          float64   `json:"valor"`
		SaldoPosterior float64   `json:"saldo_posterior"`
		CreatedAt      time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallet, ok := walletFromRequest(w, r, ws, l)
		if !ok {
			return
		}

		var types []string
		if t := r.URL.Query().Get("tipo"); t != "" {
			types = []string{t}
		}

		transactions, err := ws.ListTransactions(r.Context(), wallet.ID, types)
		if err != nil {
			l.Error("Failed to list transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		out := make([]transaction, 0, len(transactions))
		for _, t := range transactions {
			valor, _ := t.Amount.Float64()
			saldo, _ := t.BalanceAfter.Float64()
			out = append(out, transaction{
				ID:             t.ID.String(),
				Tipo:           t.Type,
				Valor:          valor,
				SaldoPosterior: saldo,
				CreatedAt:      t.CreatedAt,
			})
		}
		render.JSON(w, out)
	})
}
