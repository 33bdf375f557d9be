package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recharge statuses. Only PENDENTE and CONFIRMADO are persisted:
// expiry is derived by readers from PixExpiresAt, there is no timer
// flipping rows to EXPIRADO.
const (
	RechargePending   = "PENDENTE"
	RechargeConfirmed = "CONFIRMADO"
	RechargeExpired   = "EXPIRADO"
)

// Recharge is one PIX money-in attempt. The PIX payload is opaque to
// this service: it is produced by the payment collaborator and only
// stored and served here.
type Recharge struct {
	ID           uuid.UUID
	WalletID     uuid.UUID
	CreatedAt    time.Time
	Amount       decimal.Decimal
	Status       string
	PixCode      string // "copia e cola" payment string
	PixQRCode    string // base64 encoded QR image
	PixExpiresAt time.Time
	ConfirmedAt  *time.Time
}

// EffectiveStatus derives the status as seen by readers at the given
// moment: a pending recharge past its PIX expiry is inert.
func (r Recharge) EffectiveStatus(now time.Time) string {
	if r.Status == RechargePending && now.After(r.PixExpiresAt) {
		return RechargeExpired
	}
	return r.Status
}
