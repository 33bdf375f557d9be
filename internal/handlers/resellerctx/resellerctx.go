package resellerctx

import (
	"context"

	"github.com/dmoura/carteira/internal/models"
)

type ctxKey string

const resellerKey ctxKey = "reseller"

func NewContext(ctx context.Context, r models.Reseller) context.Context {
	return context.WithValue(ctx, resellerKey, r)
}

func FromContext(ctx context.Context) (models.Reseller, bool) {
	r, ok := ctx.Value(resellerKey).(models.Reseller)
	return r, ok
}
