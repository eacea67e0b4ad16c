package local

import (
	"github.com/k-code-yt/saga-choreography/internal/bus"
	invapp "github.com/k-code-yt/saga-choreography/internal/inventory/application"
	invhandlers "github.com/k-code-yt/saga-choreography/internal/inventory/handlers"
	invmemory "github.com/k-code-yt/saga-choreography/internal/inventory/infra/memory"
	payapp "github.com/k-code-yt/saga-choreography/internal/payment/application"
	payhandlers "github.com/k-code-yt/saga-choreography/internal/payment/handlers"
	paymemory "github.com/k-code-yt/saga-choreography/internal/payment/infra/memory"
	saleapp "github.com/k-code-yt/saga-choreography/internal/sale/application"
	salehandlers "github.com/k-code-yt/saga-choreography/internal/sale/handlers"
	salememory "github.com/k-code-yt/saga-choreography/internal/sale/infra/memory"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

// Saga runs the three participants in one process over a memory bus and memory stores.
type Saga struct {
	Bus       *bus.Bus
	Sales     *salememory.Store
	Inventory *invmemory.Store
	Payments  *paymemory.Store

	SaleService      *saleapp.SaleService
	InventoryService *invapp.InventoryService
	PaymentService   *payapp.PaymentService
}

// Publishers lets a caller put something in front of the bus per participant.
type Publishers map[pkgconstants.Participant]pkgtypes.Publisher

func New(b *bus.Bus, pubs Publishers) *Saga {
	publisher := func(p pkgconstants.Participant) pkgtypes.Publisher {
		if pub, ok := pubs[p]; ok {
			return pub
		}
		return b
	}

	s := &Saga{
		Bus:       b,
		Sales:     salememory.NewStore(),
		Inventory: invmemory.NewStore(),
		Payments:  paymemory.NewStore(),
	}
	s.SaleService = saleapp.NewSaleService(s.Sales, publisher(pkgconstants.Participant_Sale))
	s.InventoryService = invapp.NewInventoryService(s.Inventory, publisher(pkgconstants.Participant_Inventory))
	s.PaymentService = payapp.NewPaymentService(s.Payments, publisher(pkgconstants.Participant_Payment))

	b.Subscribe(pkgconstants.Participant_Sale, salehandlers.NewMsgRouter(s.SaleService).Handle)
	b.Subscribe(pkgconstants.Participant_Inventory, invhandlers.NewMsgRouter(s.InventoryService).Handle)
	b.Subscribe(pkgconstants.Participant_Payment, payhandlers.NewMsgRouter(s.PaymentService).Handle)
	return s
}
