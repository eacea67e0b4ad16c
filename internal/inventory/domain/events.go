package domain

import (
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

// Event is the closed set of saga events the stock ledger reacts to.
type Event interface {
	inventoryEvent()
	Snapshot() pkgtypes.Sale
	Type() pkgtypes.EventType
}

type SaleCreated struct{ Sale pkgtypes.Sale }

type PaymentFailed struct{ Sale pkgtypes.Sale }

type InventoryRolledBack struct{ Sale pkgtypes.Sale }

func (SaleCreated) inventoryEvent() {}
func (PaymentFailed) inventoryEvent() {}
func (InventoryRolledBack) inventoryEvent() {}

func (e SaleCreated) Snapshot() pkgtypes.Sale { return e.Sale }
func (e PaymentFailed) Snapshot() pkgtypes.Sale { return e.Sale }
func (e InventoryRolledBack) Snapshot() pkgtypes.Sale { return e.Sale }

func (SaleCreated) Type() pkgtypes.EventType { return pkgconstants.EventType_CreatedSale }
func (PaymentFailed) Type() pkgtypes.EventType { return pkgconstants.EventType_FailedPayment }
func (InventoryRolledBack) Type() pkgtypes.EventType { return pkgconstants.EventType_RollbackInventory }

// FromEnvelope returns false for tags this participant does not handle.
func FromEnvelope(env *pkgtypes.Envelope) (Event, bool) {
	switch env.SaleEvent {
	case pkgconstants.EventType_CreatedSale:
		return SaleCreated{Sale: env.Sale}, true
	case pkgconstants.EventType_FailedPayment:
		return PaymentFailed{Sale: env.Sale}, true
	case pkgconstants.EventType_RollbackInventory:
		return InventoryRolledBack{Sale: env.Sale}, true
	}
	return nil, false
}
