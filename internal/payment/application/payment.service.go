package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/k-code-yt/saga-choreography/internal/inbox"
	"github.com/k-code-yt/saga-choreography/internal/payment/domain"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/sirupsen/logrus"
)

type PaymentTx interface {
	inbox.Marks
	GetAccountForUpdate(ctx context.Context, userID int) (*domain.Account, bool, error)
	UpdateAccount(ctx context.Context, acc *domain.Account) error
	InsertPayment(ctx context.Context, p *domain.Payment) error
}

type PaymentStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx PaymentTx) error) error
}

type PaymentService struct {
	store     PaymentStore
	publisher pkgtypes.Publisher
}

func NewPaymentService(store PaymentStore, publisher pkgtypes.Publisher) *PaymentService {
	return &PaymentService{
		store:     store,
		publisher: publisher,
	}
}

// Pay charges the buyer's account and emits VALIDATED_PAYMENT, or FAILED_PAYMENT when
// the balance does not cover the sale value.
func (s *PaymentService) Pay(ctx context.Context, sale pkgtypes.Sale) (inbox.Result, error) {
	res, err := inbox.Retry(ctx, func(ctx context.Context) (inbox.Result, error) {
		var res inbox.Result
		err := s.store.InTx(ctx, func(ctx context.Context, tx PaymentTx) error {
			var err error
			res, err = inbox.Guard(ctx, tx, sale.ID, pkgconstants.EventType_UpdatedInventory, func() (pkgtypes.EventType, error) {
				return s.charge(ctx, tx, sale)
			})
			return err
		})
		return res, err
	})
	if err != nil {
		return res, err
	}

	err = s.publisher.Publish(ctx, pkgtypes.NewEnvelope(sale, res.Outcome))
	if err != nil {
		if !pkgerrors.IsTransportError(err) {
			err = pkgerrors.NewTransportError(err)
		}
		return res, err
	}
	logrus.WithFields(logrus.Fields{
		"SALE_ID":   sale.ID,
		"EVENT":     res.Outcome,
		"DUPLICATE": res.Duplicate,
	}).Info("EMIT:SUCCESS")
	return res, nil
}

func (s *PaymentService) charge(ctx context.Context, tx PaymentTx, sale pkgtypes.Sale) (pkgtypes.EventType, error) {
	acc, found, err := tx.GetAccountForUpdate(ctx, sale.UserID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", pkgerrors.NewNonExistingKeyError(fmt.Errorf("no account for user %d", sale.UserID))
	}

	err = acc.Withdraw(sale.Value)
	if errors.Is(err, domain.ErrInsufficientFunds) {
		logrus.WithFields(logrus.Fields{
			"SALE_ID": sale.ID,
			"USER_ID": sale.UserID,
			"BALANCE": acc.Balance.String(),
			"VALUE":   sale.Value.String(),
		}).Warn("PAY:INSUFFICIENT_FUNDS")
		return pkgconstants.EventType_FailedPayment, nil
	}
	if err != nil {
		return "", err
	}

	if err := tx.UpdateAccount(ctx, acc); err != nil {
		return "", err
	}
	if err := tx.InsertPayment(ctx, domain.NewPayment(sale.UserID, sale.ID, sale.Value)); err != nil {
		return "", err
	}
	return pkgconstants.EventType_ValidatedPayment, nil
}
