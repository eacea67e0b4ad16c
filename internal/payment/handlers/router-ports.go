package handlers

import (
	"context"

	"github.com/k-code-yt/saga-choreography/internal/inbox"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

type Handlers interface {
	Pay(ctx context.Context, sale pkgtypes.Sale) (inbox.Result, error)
}
