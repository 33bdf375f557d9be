package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WalletStatusActive    = "active"
	WalletStatusSuspended = "suspended"
)

// Transaction types. The sign of each type tells how the transaction
// affects the available balance; blocked funds are tracked on the
// wallet itself.
const (
	TransactionTypeRecharge = "recharge"           // credit from a confirmed PIX recharge
	TransactionTypeHold     = "reservation_hold"   // available -> blocked
	TransactionTypeRefund   = "reservation_refund" // blocked -> available (cancellation)
	TransactionTypeSettle   = "settlement"         // blocked consumed, available untouched
	TransactionTypeDebit    = "debit"              // direct debit of available funds
)

type Wallet struct {
	ID         uuid.UUID
	ResellerID uuid.UUID
	CreatedAt  time.Time
	Balance    decimal.Decimal // available funds, never negative
	Blocked    decimal.Decimal // sum of holds of non-terminal reservations
	Status     string
}

// Transaction is an immutable ledger record. BalanceAfter snapshots
// the available balance right after the transaction applied, so the
// full log replays to the wallet's current balance.
type Transaction struct {
	ID            uuid.UUID
	WalletID      uuid.UUID
	CreatedAt     time.Time
	Type          string
	Amount        decimal.Decimal // always positive, sign comes from Type
	BalanceAfter  decimal.Decimal
	ReservationID *uuid.UUID
	RechargeID    *uuid.UUID
}

// TransactionSign returns how a transaction type affects the available
// balance: +1 credit, -1 debit, 0 for settlements (blocked only).
func TransactionSign(transactionType string) int {
	switch transactionType {
	case TransactionTypeRecharge, TransactionTypeRefund:
		return 1
	case TransactionTypeHold, TransactionTypeDebit:
		return -1
	default:
		return 0
	}
}
