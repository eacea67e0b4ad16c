package domain

import (
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

// Event is the closed set of saga events order capture reacts to.
type Event interface {
	saleEvent()
	SaleID() int64
	Type() pkgtypes.EventType
}

type PaymentValidated struct{ Sale pkgtypes.Sale }

type InventoryRolledBack struct{ Sale pkgtypes.Sale }

func (PaymentValidated) saleEvent() {}
func (InventoryRolledBack) saleEvent() {}

func (e PaymentValidated) SaleID() int64 { return e.Sale.ID }
func (e InventoryRolledBack) SaleID() int64 { return e.Sale.ID }

func (PaymentValidated) Type() pkgtypes.EventType { return pkgconstants.EventType_ValidatedPayment }
func (InventoryRolledBack) Type() pkgtypes.EventType { return pkgconstants.EventType_RollbackInventory }

func FromEnvelope(env *pkgtypes.Envelope) (Event, bool) {
	switch env.SaleEvent {
	case pkgconstants.EventType_ValidatedPayment:
		return PaymentValidated{Sale: env.Sale}, true
	case pkgconstants.EventType_RollbackInventory:
		return InventoryRolledBack{Sale: env.Sale}, true
	}
	return nil, false
}
