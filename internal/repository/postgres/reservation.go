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

type ReservationRepo struct {
	DB DBTX
}

const createReservation = `-- name: CreateReservation
INSERT INTO reservations (id, wallet_id, created_at, modified_at, product_ref, quantity, total_price, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, wallet_id, created_at, modified_at, product_ref, quantity, total_price, status
`

func (r *ReservationRepo) Create(ctx context.Context, reservation models.Reservation) (models.Reservation, error) {
	now := time.Now()
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = now
	}
	if reservation.ModifiedAt.IsZero() {
		reservation.ModifiedAt = now
	}
	if reservation.Status == "" {
		reservation.Status = models.ReservationReserved
	}

	rows, _ := r.DB.Query(ctx, createReservation,
		reservation.ID,
		reservation.WalletID,
		reservation.CreatedAt,
		reservation.ModifiedAt,
		reservation.ProductRef,
		reservation.Quantity,
		reservation.TotalPrice,
		reservation.Status,
	)
	created, err := pgx.CollectOneRow(rows, rowToReservation)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getReservation = `-- name: GetReservation
SELECT id, wallet_id, created_at, modified_at, product_ref, quantity, total_price, status FROM reservations
WHERE id = $1
`

func (r *ReservationRepo) Get(ctx context.Context, id uuid.UUID, forUpdate bool) (models.Reservation, error) {
	query := getReservation
	if forUpdate {
		query += "FOR UPDATE\n"
	}

	rows, _ := r.DB.Query(ctx, query, id)
	reservation, err := pgx.CollectOneRow(rows, rowToReservation)

	switch {
	case err == nil:
		return reservation, nil
	case errors.Is(err, pgx.ErrNoRows):
		return reservation, apperrors.ErrReservationNotFound
	default:
		return reservation, fmt.Errorf("db error: %w", err)
	}
}

const updateReservationStatus = `-- name: UpdateReservationStatus
UPDATE reservations
SET status = $2, modified_at = $3
WHERE id = $1
RETURNING id, wallet_id, created_at, modified_at, product_ref, quantity, total_price, status
`

func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (models.Reservation, error) {
	rows, _ := r.DB.Query(ctx, updateReservationStatus, id, status, time.Now())
	reservation, err := pgx.CollectOneRow(rows, rowToReservation)

	switch {
	case err == nil:
		return reservation, nil
	case errors.Is(err, pgx.ErrNoRows):
		return reservation, apperrors.ErrReservationNotFound
	default:
		return reservation, fmt.Errorf("db error: %w", err)
	}
}

const listReservations = `-- name: ListReservations
SELECT id, wallet_id, created_at, modified_at, product_ref, quantity, total_price, status
FROM reservations
WHERE wallet_id = $1 AND ($2::text[] IS NULL OR status = ANY($2))
ORDER BY created_at DESC, id
`

func (r *ReservationRepo) List(ctx context.Context, walletID uuid.UUID, statuses []string) ([]models.Reservation, error) {
	rows, _ := r.DB.Query(ctx, listReservations, walletID, statuses)
	reservations, err := pgx.CollectRows(rows, rowToReservation)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return reservations, nil
}

const summarizeByStatus = `-- name: SummarizeByStatus
SELECT status, COUNT(*), COALESCE(SUM(total_price), 0)
FROM reservations
WHERE wallet_id = $1
GROUP BY status
ORDER BY status
`

func (r *ReservationRepo) SummarizeByStatus(ctx context.Context, walletID uuid.UUID) ([]models.StatusSummary, error) {
	rows, _ := r.DB.Query(ctx, summarizeByStatus, walletID)
	summary, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StatusSummary, error) {
		var s models.StatusSummary
		err := row.Scan(&s.Status, &s.Count, &s.Total)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return summary, nil
}

func rowToReservation(row pgx.CollectableRow) (models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(&r.ID, &r.WalletID, &r.CreatedAt, &r.ModifiedAt, &r.ProductRef, &r.Quantity, &r.TotalPrice, &r.Status)
	return r, err
}
