package handlers

import (
	"context"

	"github.com/k-code-yt/saga-choreography/internal/inbox"
	"github.com/k-code-yt/saga-choreography/internal/inventory/domain"
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

// Handle is the consumer entrypoint. A non-nil error keeps the offset uncommitted.
func (r *MsgRouter) Handle(ctx context.Context, env *pkgtypes.Envelope) error {
	ev, ok := domain.FromEnvelope(env)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"SALE_ID": env.SaleID(),
			"EVENT":   env.SaleEvent,
		}).Debug("ROUTE:SKIPPED")
		return nil
	}

	var (
		res inbox.Result
		err error
	)
	switch e := ev.(type) {
	case domain.SaleCreated:
		res, err = r.svc.Debit(ctx, e.Sale)
	case domain.PaymentFailed:
		res, err = r.svc.Credit(ctx, e.Sale, e.Type())
	case domain.InventoryRolledBack:
		res, err = r.svc.Credit(ctx, e.Sale, e.Type())
	}
	return settle(ev, res, err)
}

func settle(ev domain.Event, res inbox.Result, err error) error {
	fields := logrus.Fields{
		"SALE_ID": ev.Snapshot().ID,
		"EVENT":   ev.Type(),
		"OUTCOME": res.Outcome,
	}
	observe := func(outcome string) {
		pkgmetrics.EventsHandled.WithLabelValues(string(pkgconstants.Participant_Inventory), string(ev.Type()), outcome).Inc()
	}

	switch {
	case err == nil && res.Duplicate:
		observe(pkgmetrics.Outcome_Duplicate)
		logrus.WithFields(fields).Info("HANDLE:DUPLICATE")
		return nil
	case err == nil:
		observe(pkgmetrics.Outcome_Applied)
		logrus.WithFields(fields).Info("HANDLE:SUCCESS")
		return nil
	case pkgerrors.IsNonExistingKeyError(err):
		observe(pkgmetrics.Outcome_Dropped)
		logrus.WithFields(fields).Warnf("HANDLE:NOT_FOUND %v", err)
		return nil
	}
	observe(pkgmetrics.Outcome_Failed)
	logrus.WithFields(fields).Errorf("HANDLE:ERROR %v", err)
	return err
}
