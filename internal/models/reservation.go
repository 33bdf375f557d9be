package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reservation statuses. The fulfillment flow is strictly monotonic:
// RESERVADO -> EM_SEPARACAO -> SEPARADO. Cancellation is allowed from
// the first two statuses only.
const (
	ReservationReserved   = "RESERVADO"
	ReservationSeparating = "EM_SEPARACAO"
	ReservationSeparated  = "SEPARADO"
	ReservationCancelled  = "CANCELADA"
)

type Reservation struct {
	ID         uuid.UUID
	WalletID   uuid.UUID
	CreatedAt  time.Time
	ModifiedAt time.Time
	ProductRef string
	Quantity   int32
	TotalPrice decimal.Decimal
	Status     string
}

// Terminal reports whether the reservation no longer blocks funds.
func (r Reservation) Terminal() bool {
	return r.Status == ReservationSeparated || r.Status == ReservationCancelled
}

// NextStatus returns the only allowed forward transition, or "" if the
// reservation can't advance.
func (r Reservation) NextStatus() string {
	switch r.Status {
	case ReservationReserved:
		return ReservationSeparating
	case ReservationSeparating:
		return ReservationSeparated
	default:
		return ""
	}
}

// StatusSummary is a read-only projection of reservations grouped by
// status, recomputed on every read.
type StatusSummary struct {
	Status string
	Count  int64
	Total  decimal.Decimal
}
