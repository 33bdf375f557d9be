// Package pix abstracts the external PIX collaborator. The wallet core
// never interprets PIX payloads: it stores whatever the provider
// returned and serves it back to the paying client.
package pix

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Charge is the opaque payment payload for one recharge attempt.
type Charge struct {
	// Code is the "copia e cola" string the payer pastes into their bank app
	Code string

	// QRCodeBase64 is the QR image encoding the same code
	QRCodeBase64 string
}

type Provider interface {
	CreateCharge(ctx context.Context, amount decimal.Decimal, expiresAt time.Time) (Charge, error)
}

// LocalProvider issues self-contained charges without calling any
// payment gateway. Useful for development and tests; production wires
// a real gateway client behind the same interface.
type LocalProvider struct{}

func (LocalProvider) CreateCharge(_ context.Context, amount decimal.Decimal, expiresAt time.Time) (Charge, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return Charge{}, fmt.Errorf("error while generating charge id. Err: %w", err)
	}

	code := fmt.Sprintf("00020126PIX-DEV-%s-%s-%d", hex.EncodeToString(b), amount.StringFixed(2), expiresAt.Unix())

	return Charge{
		Code:         code,
		QRCodeBase64: base64.StdEncoding.EncodeToString([]byte(code)),
	}, nil
}
