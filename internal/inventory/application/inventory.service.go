package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/k-code-yt/saga-choreography/internal/inbox"
	"github.com/k-code-yt/saga-choreography/internal/inventory/domain"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/sirupsen/logrus"
)

// InventoryTx is one local transaction of the stock ledger. Getters lock the row they return.
type InventoryTx interface {
	inbox.Marks
	GetStockForUpdate(ctx context.Context, productID int) (*domain.Stock, bool, error)
	UpdateStock(ctx context.Context, stock *domain.Stock) error
	GetReservationForUpdate(ctx context.Context, saleID int64) (*domain.Reservation, bool, error)
	SaveReservation(ctx context.Context, r *domain.Reservation) error
}

type InventoryStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx InventoryTx) error) error
}

type InventoryService struct {
	store     InventoryStore
	publisher pkgtypes.Publisher
}

func NewInventoryService(store InventoryStore, publisher pkgtypes.Publisher) *InventoryService {
	return &InventoryService{
		store:     store,
		publisher: publisher,
	}
}

// Debit reserves stock for a new sale and emits UPDATED_INVENTORY, or ROLLBACK_INVENTORY
// without touching stock when there is not enough of it.
func (s *InventoryService) Debit(ctx context.Context, sale pkgtypes.Sale) (inbox.Result, error) {
	res, err := s.apply(ctx, sale.ID, pkgconstants.EventType_CreatedSale, func(ctx context.Context, tx InventoryTx) (pkgtypes.EventType, error) {
		stock, found, err := tx.GetStockForUpdate(ctx, sale.ProductID)
		if err != nil {
			return "", err
		}
		if !found {
			return "", pkgerrors.NewNonExistingKeyError(fmt.Errorf("no stock for product %d", sale.ProductID))
		}

		err = stock.Debit(sale.Quantity)
		if errors.Is(err, domain.ErrInsufficientStock) {
			logrus.WithFields(logrus.Fields{
				"SALE_ID":    sale.ID,
				"PRODUCT_ID": sale.ProductID,
				"AVAILABLE":  stock.Quantity,
				"REQUESTED":  sale.Quantity,
			}).Warn("DEBIT:INSUFFICIENT_STOCK")
			return pkgconstants.EventType_RollbackInventory, nil
		}
		if err != nil {
			return "", err
		}

		if err := tx.UpdateStock(ctx, stock); err != nil {
			return "", err
		}
		if err := tx.SaveReservation(ctx, domain.NewReservation(sale.ID, sale.ProductID, sale.Quantity)); err != nil {
			return "", err
		}
		return pkgconstants.EventType_UpdatedInventory, nil
	})
	if err != nil {
		return res, err
	}
	return res, s.emit(ctx, sale, res)
}

// Credit returns reserved stock. The reservation makes it happen at most once per sale,
// whichever compensation event arrives first. Only a payment failure emits ROLLBACK_INVENTORY.
func (s *InventoryService) Credit(ctx context.Context, sale pkgtypes.Sale, trigger pkgtypes.EventType) (inbox.Result, error) {
	res, err := s.apply(ctx, sale.ID, trigger, func(ctx context.Context, tx InventoryTx) (pkgtypes.EventType, error) {
		reservation, found, err := tx.GetReservationForUpdate(ctx, sale.ID)
		if err != nil {
			return "", err
		}

		if found && !reservation.IsReleased() {
			stock, found, err := tx.GetStockForUpdate(ctx, reservation.ProductID)
			if err != nil {
				return "", err
			}
			if !found {
				return "", pkgerrors.NewNonExistingKeyError(fmt.Errorf("no stock for product %d", reservation.ProductID))
			}
			stock.Credit(reservation.Quantity)
			if err := tx.UpdateStock(ctx, stock); err != nil {
				return "", err
			}
			reservation.Release()
			if err := tx.SaveReservation(ctx, reservation); err != nil {
				return "", err
			}
			logrus.WithFields(logrus.Fields{
				"SALE_ID":    sale.ID,
				"PRODUCT_ID": reservation.ProductID,
				"QTY":        reservation.Quantity,
				"EVENT":      trigger,
			}).Info("CREDIT:RELEASED")
		} else {
			logrus.WithFields(logrus.Fields{
				"SALE_ID": sale.ID,
				"EVENT":   trigger,
			}).Debug("CREDIT:NOTHING_RESERVED")
		}

		if trigger == pkgconstants.EventType_FailedPayment {
			return pkgconstants.EventType_RollbackInventory, nil
		}
		return "", nil
	})
	if err != nil {
		return res, err
	}
	return res, s.emit(ctx, sale, res)
}

func (s *InventoryService) apply(ctx context.Context, saleID int64, eventType pkgtypes.EventType, mutate func(ctx context.Context, tx InventoryTx) (pkgtypes.EventType, error)) (inbox.Result, error) {
	return inbox.Retry(ctx, func(ctx context.Context) (inbox.Result, error) {
		var res inbox.Result
		err := s.store.InTx(ctx, func(ctx context.Context, tx InventoryTx) error {
			var err error
			res, err = inbox.Guard(ctx, tx, saleID, eventType, func() (pkgtypes.EventType, error) {
				return mutate(ctx, tx)
			})
			return err
		})
		return res, err
	})
}

func (s *InventoryService) emit(ctx context.Context, sale pkgtypes.Sale, res inbox.Result) error {
	if res.Outcome == "" {
		return nil
	}
	err := s.publisher.Publish(ctx, pkgtypes.NewEnvelope(sale, res.Outcome))
	if err != nil {
		if !pkgerrors.IsTransportError(err) {
			err = pkgerrors.NewTransportError(err)
		}
		return err
	}
	logrus.WithFields(logrus.Fields{
		"SALE_ID":   sale.ID,
		"EVENT":     res.Outcome,
		"DUPLICATE": res.Duplicate,
	}).Info("EMIT:SUCCESS")
	return nil
}
