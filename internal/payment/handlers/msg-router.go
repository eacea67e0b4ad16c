package handlers

import (
	"context"

	"github.com/k-code-yt/saga-choreography/internal/payment/domain"
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

	e := ev.(domain.InventoryUpdated)
	res, err := r.svc.Pay(ctx, e.Sale)

	fields := logrus.Fields{
		"SALE_ID": e.Sale.ID,
		"EVENT":   e.Type(),
		"OUTCOME": res.Outcome,
	}
	label := pkgmetrics.Outcome_Applied
	switch {
	case err == nil && res.Duplicate:
		label = pkgmetrics.Outcome_Duplicate
		logrus.WithFields(fields).Info("HANDLE:DUPLICATE")
	case err == nil:
		logrus.WithFields(fields).Info("HANDLE:SUCCESS")
	case pkgerrors.IsNonExistingKeyError(err):
		label = pkgmetrics.Outcome_Dropped
		logrus.WithFields(fields).Warnf("HANDLE:NOT_FOUND %v", err)
		err = nil
	default:
		label = pkgmetrics.Outcome_Failed
		logrus.WithFields(fields).Errorf("HANDLE:ERROR %v", err)
	}
	pkgmetrics.EventsHandled.WithLabelValues(string(pkgconstants.Participant_Payment), string(e.Type()), label).Inc()
	return err
}
