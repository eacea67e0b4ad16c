package domain

import (
	"fmt"
	"math"
	"time"

	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/shopspring/decimal"
)

type CreateSaleRequest struct {
	UserID    int             `json:"userId"`
	ProductID int             `json:"productId"`
	Quantity  int             `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
}

type Sale struct {
	ID        int64
	ProductID int
	UserID    int
	Quantity  int
	Value     decimal.Decimal
	Status    pkgtypes.SaleStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

var ErrSaleTerminal = pkgerrors.NewBusinessRuleError("sale already in a terminal status")

// Money columns are NUMERIC(14, 2).
const valueScale = 2

var maxValue = decimal.New(1, 12)

func NewSale(req CreateSaleRequest) (*Sale, error) {
	switch {
	case req.UserID <= 0 || req.UserID > math.MaxInt32:
		return nil, pkgerrors.NewValidationError("userId must be positive and fit in 32 bits")
	case req.ProductID <= 0 || req.ProductID > math.MaxInt32:
		return nil, pkgerrors.NewValidationError("productId must be positive and fit in 32 bits")
	case req.Quantity <= 0 || req.Quantity > math.MaxInt32:
		return nil, pkgerrors.NewValidationError("quantity must be positive and fit in 32 bits")
	case !req.Value.IsPositive():
		return nil, pkgerrors.NewValidationError("value must be positive")
	case !req.Value.Equal(req.Value.Truncate(valueScale)):
		return nil, pkgerrors.NewValidationError("value must have at most 2 decimal places")
	case req.Value.GreaterThanOrEqual(maxValue):
		return nil, pkgerrors.NewValidationError("value must have at most 12 integer digits")
	}

	now := time.Now().UTC()
	return &Sale{
		ProductID: req.ProductID,
		UserID:    req.UserID,
		Quantity:  req.Quantity,
		Value:     req.Value,
		Status:    pkgtypes.SaleStatus_Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Sale) Finalize() error {
	return s.transition(pkgtypes.SaleStatus_Finalized)
}

func (s *Sale) Cancel() error {
	return s.transition(pkgtypes.SaleStatus_Canceled)
}

// only PENDING may move, and only to a terminal status
func (s *Sale) transition(to pkgtypes.SaleStatus) error {
	if s.Status != pkgtypes.SaleStatus_Pending {
		return fmt.Errorf("sale %d is %s, cannot become %s: %w", s.ID, s.Status, to, ErrSaleTerminal)
	}
	s.Status = to
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Sale) Snapshot() pkgtypes.Sale {
	return pkgtypes.Sale{
		ID:        s.ID,
		ProductID: s.ProductID,
		UserID:    s.UserID,
		Value:     s.Value,
		Status:    s.Status,
		Quantity:  s.Quantity,
		CreatedAt: s.CreatedAt,
	}
}
