package domain

import (
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

// Event is the closed set of saga events the fund ledger reacts to.
type Event interface {
	paymentEvent()
	Snapshot() pkgtypes.Sale
	Type() pkgtypes.EventType
}

type InventoryUpdated struct{ Sale pkgtypes.Sale }

func (InventoryUpdated) paymentEvent() {}
func (e InventoryUpdated) Snapshot() pkgtypes.Sale { return e.Sale }
func (InventoryUpdated) Type() pkgtypes.EventType { return pkgconstants.EventType_UpdatedInventory }

func FromEnvelope(env *pkgtypes.Envelope) (Event, bool) {
	if env.SaleEvent == pkgconstants.EventType_UpdatedInventory {
		return InventoryUpdated{Sale: env.Sale}, true
	}
	return nil, false
}
