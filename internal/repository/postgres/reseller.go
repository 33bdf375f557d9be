package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmoura/carteira/internal/apperrors"
	"github.com/dmoura/carteira/internal/models"
)

type ResellerRepo struct {
	DB DBTX
}

const createReseller = `-- name: CreateReseller
INSERT INTO resellers (id, login, password_hash)
VALUES ($1, $2, $3)
RETURNING id, created_at, login, password_hash
`

func (r *ResellerRepo) CreateReseller(ctx context.Context, login string, hashedPassword string) (models.Reseller, error) {
	rows, _ := r.DB.Query(ctx, createReseller, uuid.New(), login, hashedPassword)
	reseller, err := pgx.CollectOneRow(rows, rowToReseller)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return reseller, apperrors.ErrResellerAlreadyExists
		}

		return reseller, fmt.Errorf("db error: %w", err)
	}

	return reseller, nil
}

const getResellerByID = `-- name: GetResellerByID
SELECT id, created_at, login, password_hash FROM resellers
WHERE id = $1
`

func (r *ResellerRepo) GetResellerByID(ctx context.Context, id uuid.UUID) (models.Reseller, error) {
	rows, _ := r.DB.Query(ctx, getResellerByID, id)
	reseller, err := pgx.CollectOneRow(rows, rowToReseller)

	switch {
	case err == nil:
		return reseller, nil
	case errors.Is(err, pgx.ErrNoRows):
		return reseller, apperrors.ErrResellerNotFound
	default:
		return reseller, fmt.Errorf("db error: %w", err)
	}
}

const getResellerByLogin = `-- name: GetResellerByLogin
SELECT id, created_at, login, password_hash FROM resellers
WHERE login = $1
`

func (r *ResellerRepo) GetResellerByLogin(ctx context.Context, login string) (models.Reseller, error) {
	rows, _ := r.DB.Query(ctx, getResellerByLogin, login)
	reseller, err := pgx.CollectOneRow(rows, rowToReseller)

	switch {
	case err == nil:
		return reseller, nil
	case errors.Is(err, pgx.ErrNoRows):
		return reseller, apperrors.ErrResellerNotFound
	default:
		return reseller, fmt.Errorf("db error: %w", err)
	}
}

func rowToReseller(row pgx.CollectableRow) (models.Reseller, error) {
	var r models.Reseller
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Login, &r.HashedPassword)
	return r, err
}
