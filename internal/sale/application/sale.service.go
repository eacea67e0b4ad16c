package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/k-code-yt/saga-choreography/internal/sale/domain"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/sirupsen/logrus"
)

type SaleStore interface {
	// Insert assigns the sale its ID.
	Insert(ctx context.Context, sale *domain.Sale) error
	Get(ctx context.Context, id int64) (*domain.Sale, bool, error)
	// UpdateStatus locks the row, applies transition and persists the result if it returned nil.
	UpdateStatus(ctx context.Context, id int64, transition func(s *domain.Sale) error) (*domain.Sale, bool, error)
}

type SaleService struct {
	store     SaleStore
	publisher pkgtypes.Publisher
}

func NewSaleService(store SaleStore, publisher pkgtypes.Publisher) *SaleService {
	return &SaleService{
		store:     store,
		publisher: publisher,
	}
}

// Create persists a PENDING sale and starts the saga with CREATED_SALE.
func (s *SaleService) Create(ctx context.Context, req domain.CreateSaleRequest) (*domain.Sale, error) {
	sale, err := domain.NewSale(req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, sale); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"SALE_ID":    sale.ID,
		"USER_ID":    sale.UserID,
		"PRODUCT_ID": sale.ProductID,
		"QTY":        sale.Quantity,
	}).Info("CREATE:SUCCESS")

	err = s.publisher.Publish(ctx, pkgtypes.NewEnvelope(sale.Snapshot(), pkgconstants.EventType_CreatedSale))
	if err != nil {
		if !pkgerrors.IsTransportError(err) {
			err = pkgerrors.NewTransportError(err)
		}
		return sale, err
	}
	return sale, nil
}

func (s *SaleService) Get(ctx context.Context, id int64) (*domain.Sale, bool, error) {
	return s.store.Get(ctx, id)
}

// Finalize reports false when the sale was already terminal.
func (s *SaleService) Finalize(ctx context.Context, id int64) (bool, error) {
	return s.settle(ctx, id, "FINALIZE", (*domain.Sale).Finalize)
}

func (s *SaleService) Cancel(ctx context.Context, id int64) (bool, error) {
	return s.settle(ctx, id, "CANCEL", (*domain.Sale).Cancel)
}

func (s *SaleService) settle(ctx context.Context, id int64, step string, transition func(*domain.Sale) error) (bool, error) {
	sale, found, err := s.store.UpdateStatus(ctx, id, transition)
	if errors.Is(err, domain.ErrSaleTerminal) {
		logrus.WithField("SALE_ID", id).Warnf("%s:ALREADY_TERMINAL %v", step, err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !found {
		return false, pkgerrors.NewNonExistingKeyError(fmt.Errorf("sale %d", id))
	}

	logrus.WithFields(logrus.Fields{
		"SALE_ID": id,
		"STATUS":  sale.Status,
	}).Infof("%s:SUCCESS", step)
	return true, nil
}
