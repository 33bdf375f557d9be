package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/models"
)

type RechargeRepo struct {
	DB DBTX
}

const createRecharge = `-- name: CreateRecharge
INSERT INTO recharges (id, wallet_id, created_at, amount, status, pix_code, pix_qrcode, pix_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, wallet_id, created_at, amount, status, pix_code, pix_qrcode, pix_expires_at, confirmed_at
`

func (r *RechargeRepo) Create(ctx context.Context, recharge models.Recharge) (models.Recharge, error) {
	if recharge.ID == uuid.Nil {
		recharge.ID = uuid.New()
	}
	if recharge.CreatedAt.IsZero() {
		recharge.CreatedAt = time.Now()
	}
	if recharge.Status == "" {
		recharge.Status = models.RechargePending
	}

	rows, _ := r.DB.Query(ctx, createRecharge,
		recharge.ID,
		recharge.WalletID,
		recharge.CreatedAt,
		recharge.Amount,
		recharge.Status,
		recharge.PixCode,
		recharge.PixQRCode,
		recharge.PixExpiresAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToRecharge)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getRecharge = `-- name: GetRecharge
SELECT id, wallet_id, created_at, amount, status, pix_code, pix_qrcode, pix_expires_at, confirmed_at FROM recharges
WHERE id = $1
`

func (r *RechargeRepo) Get(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Recharge, error) {
	query := getRecharge
	if forUpdate {
		query += "FOR UPDATE\n"
	}

	rows, _ := r.DB.Query(ctx, query, id)
	recharge, err := pgx.CollectOneRow(rows, rowToRecharge)

	switch {
	case err == nil:
		return recharge, nil
	case errors.Is(err, pgx.ErrNoRows):
		return recharge, apperrors.ErrRechargeNotFound
	default:
		return recharge, fmt.Errorf("db error: %w", err)
	}
}

const markRechargeConfirmed = `-- name: MarkRechargeConfirmed
UPDATE recharges
SET status = $3, confirmed_at = $2
WHERE id = $1 AND status = $4
RETURNING id, wallet_id, created_at, amount, status, pix_code, pix_qrcode, pix_expires_at, confirmed_at
`

// Mark pending recharge confirmed
// Updates only PENDENTE rows: confirming twice fails on the second call
func (r *RechargeRepo) MarkConfirmed(ctx context.Context, id uuid.UUID, confirmedAt time.Time) (models.Recharge, error) {
	rows, _ := r.DB.Query(ctx, markRechargeConfirmed, id, confirmedAt, models.RechargeConfirmed, models.RechargePending)
	recharge, err := pgx.CollectOneRow(rows, rowToRecharge)

	if err == nil {
		return recharge, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return recharge, fmt.Errorf("db error: %w", err)
	}

	// No pending row matched: figure out whether it is missing or confirmed already
	recharge, getErr := r.Get(ctx, id, false)
	switch {
	case getErr != nil:
		return recharge, getErr
	case recharge.Status == models.RechargeConfirmed:
		return recharge, apperrors.ErrRechargeAlreadyConfirmed
	default:
		return recharge, fmt.Errorf("db error: %w", err)
	}
}

const listRecharges = `-- name: ListRecharges
SELECT id, wallet_id, created_at, amount, status, pix_code, pix_qrcode, pix_expires_at, confirmed_at
FROM recharges
WHERE wallet_id = $1
ORDER BY created_at DESC, id
`

func (r *RechargeRepo) List(ctx context.Context, walletID uuid.UUID) ([]models.Recharge, error) {
	rows, _ := r.DB.Query(ctx, listRecharges, walletID)
	recharges, err := pgx.CollectRows(rows, rowToRecharge)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return recharges, nil
}

const getEarliestPending = `-- name: GetEarliestPending
SELECT id, wallet_id, created_at, amount, status, pix_code, pix_qrcode, pix_expires_at, confirmed_at
FROM recharges
WHERE wallet_id = $1 AND status = $2 AND pix_expires_at > $3
ORDER BY created_at
LIMIT 1
`

// Return the earliest recharge the reseller can still pay:
// pending and not past its PIX expiry
func (r *RechargeRepo) GetEarliestPending(ctx context.Context, walletID uuid.UUID, now time.Time) (models.Recharge, error) {
	rows, _ := r.DB.Query(ctx, getEarliestPending, walletID, models.RechargePending, now)
	recharge, err := pgx.CollectOneRow(rows, rowToRecharge)

	switch {
	case err == nil:
		return recharge, nil
	case errors.Is(err, pgx.ErrNoRows):
		return recharge, apperrors.ErrRechargeNotFound
	default:
		return recharge, fmt.Errorf("db error: %w", err)
	}
}

func rowToRecharge(row pgx.CollectableRow) (models.Recharge, error) {
	var r models.Recharge
	err := row.Scan(&r.ID, &r.WalletID, &r.CreatedAt, &r.Amount, &r.Status, &r.PixCode, &r.PixQRCode, &r.PixExpiresAt, &r.ConfirmedAt)
	return r, err
}
