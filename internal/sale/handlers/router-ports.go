package handlers

import (
	"context"

	"github.com/k-code-yt/saga-choreography/internal/sale/domain"
)

type Handlers interface {
	Create(ctx context.Context, req domain.CreateSaleRequest) (*domain.Sale, error)
	Finalize(ctx context.Context, id int64) (bool, error)
	Cancel(ctx context.Context, id int64) (bool, error)
}
