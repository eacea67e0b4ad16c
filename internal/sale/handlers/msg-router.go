package handlers

import (
	"context"

	"github.com/k-code-yt/saga-choreography/internal/sale/domain"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgmetrics "github.com/k-code-yt/saga-choreography/pkg/metrics"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/sirupsen/logrus"
)

type MsgRouter struct {
	svc Handlers
}

func NewMsgRouter(svc Handlers) *MsgRouter {
	return &MsgRouter{
		svc: svc,
	}
}

func (r *MsgRouter) Handle(ctx context.Context, env *pkgtypes.Envelope) error {
	ev, ok := domain.FromEnvelope(env)
	if !ok {
		return nil
	}

	var (
		applied bool
		err     error
	)
	switch e := ev.(type) {
	case domain.PaymentValidated:
		applied, err = r.svc.Finalize(ctx, e.SaleID())
	case domain.InventoryRolledBack:
		applied, err = r.svc.Cancel(ctx, e.SaleID())
	}

	fields := logrus.Fields{
		"SALE_ID": ev.SaleID(),
		"EVENT":   ev.Type(),
	}
	label := pkgmetrics.Outcome_Applied
	switch {
	case err == nil && !applied:
		label = pkgmetrics.Outcome_Duplicate
	case err == nil:
	case pkgerrors.IsNonExistingKeyError(err):
		label = pkgmetrics.Outcome_Dropped
		logrus.WithFields(fields).Warnf("HANDLE:NOT_FOUND %v", err)
		err = nil
	default:
		label = pkgmetrics.Outcome_Failed
		logrus.WithFields(fields).Errorf("HANDLE:ERROR %v", err)
	}
	pkgmetrics.EventsHandled.WithLabelValues(string(pkgconstants.Participant_Sale), string(ev.Type()), label).Inc()
	return err
}
