package local

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/k-code-yt/saga-choreography/internal/bus"
	"github.com/k-code-yt/saga-choreography/internal/sale/domain"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgkafka "github.com/k-code-yt/saga-choreography/pkg/kafka"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	productID = 1
	userID    = 1
)

func newSaga(t *testing.T, encoder pkgkafka.KafkaEncoder, stock int, balance string, pubs Publishers) *Saga {
	t.Helper()
	enc, err := pkgkafka.NewMsgEncoder(encoder)
	require.NoError(t, err)

	s := New(bus.New(enc), pubs)
	s.Inventory.SetStock(productID, stock)
	s.Payments.SetAccount(userID, "alice", decimal.RequireFromString(balance))
	return s
}

func createSale(t *testing.T, s *Saga, qty int, value string) *domain.Sale {
	t.Helper()
	sale, err := s.SaleService.Create(context.Background(), domain.CreateSaleRequest{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
		Value:     decimal.RequireFromString(value),
	})
	require.NoError(t, err)
	return sale
}

func saleStatus(t *testing.T, s *Saga, id int64) pkgtypes.SaleStatus {
	t.Helper()
	sale, found, err := s.SaleService.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found)
	return sale.Status
}

func stock(t *testing.T, s *Saga) int {
	st, ok := s.Inventory.Stock(productID)
	require.True(t, ok)
	return st.Quantity
}

func balance(t *testing.T, s *Saga) decimal.Decimal {
	acc, ok := s.Payments.Account(userID)
	require.True(t, ok)
	return acc.Balance
}

func eventTypes(t *testing.T, s *Saga) []pkgtypes.EventType {
	events, err := s.Bus.Events()
	require.NoError(t, err)
	out := make([]pkgtypes.EventType, len(events))
	for i, e := range events {
		out[i] = e.SaleEvent
	}
	return out
}

var encoders = []pkgkafka.KafkaEncoder{pkgkafka.KafkaEncoder_JSON, pkgkafka.KafkaEncoder_AVRO, pkgkafka.KafkaEncoder_PROTO}

func TestSaga_HappyPathFinalizes(t *testing.T) {
	for _, enc := range encoders {
		t.Run(string(enc), func(t *testing.T) {
			s := newSaga(t, enc, 10, "100", nil)
			sale := createSale(t, s, 3, "40")

			require.NoError(t, s.Bus.Drain(context.Background()))

			assert.Equal(t, pkgtypes.SaleStatus_Finalized, saleStatus(t, s, sale.ID))
			assert.Equal(t, 7, stock(t, s))
			assert.True(t, decimal.NewFromInt(60).Equal(balance(t, s)))
			require.Len(t, s.Payments.Payments(), 1)
			assert.Equal(t, sale.ID, s.Payments.Payments()[0].SaleID)
			assert.Equal(t, []pkgtypes.EventType{
				pkgconstants.EventType_CreatedSale,
				pkgconstants.EventType_UpdatedInventory,
				pkgconstants.EventType_ValidatedPayment,
			}, eventTypes(t, s))
		})
	}
}

func TestSaga_ReferenceScenarios(t *testing.T) {
	cases := []struct {
		name        string
		stock       int
		balance     string
		qty         int
		value       string
		wantStatus  pkgtypes.SaleStatus
		wantStock   int
		wantBalance string
		wantLedger  []string
	}{
		{"happy path", 10, "500", 2, "100", pkgtypes.SaleStatus_Finalized, 8, "400", []string{"100"}},
		{"insufficient stock", 10, "500", 20, "100", pkgtypes.SaleStatus_Canceled, 10, "500", nil},
		{"insufficient funds", 10, "50", 2, "1000", pkgtypes.SaleStatus_Canceled, 10, "50", nil},
	}
	for _, tc := range cases {
		for _, enc := range encoders {
			t.Run(tc.name+"/"+string(enc), func(t *testing.T) {
				s := newSaga(t, enc, tc.stock, tc.balance, nil)
				sale := createSale(t, s, tc.qty, tc.value)

				require.NoError(t, s.Bus.Drain(context.Background()))

				assert.Equal(t, tc.wantStatus, saleStatus(t, s, sale.ID))
				assert.Equal(t, tc.wantStock, stock(t, s))
				assert.True(t, decimal.RequireFromString(tc.wantBalance).Equal(balance(t, s)), balance(t, s).String())

				payments := s.Payments.Payments()
				require.Len(t, payments, len(tc.wantLedger))
				for i, want := range tc.wantLedger {
					assert.True(t, decimal.RequireFromString(want).Equal(payments[i].Value))
					assert.Equal(t, sale.ID, payments[i].SaleID)
				}
			})
		}
	}
}

func TestSaga_InsufficientStockCancels(t *testing.T) {
	s := newSaga(t, pkgkafka.KafkaEncoder_JSON, 2, "100", nil)
	sale := createSale(t, s, 5, "40")

	require.NoError(t, s.Bus.Drain(context.Background()))

	assert.Equal(t, pkgtypes.SaleStatus_Canceled, saleStatus(t, s, sale.ID))
	assert.Equal(t, 2, stock(t, s))
	assert.True(t, decimal.NewFromInt(100).Equal(balance(t, s)))
	assert.Empty(t, s.Payments.Payments())
	assert.Equal(t, []pkgtypes.EventType{
		pkgconstants.EventType_CreatedSale,
		pkgconstants.EventType_RollbackInventory,
	}, eventTypes(t, s))
}

func TestSaga_InsufficientFundsRestoresStockAndCancels(t *testing.T) {
	s := newSaga(t, pkgkafka.KafkaEncoder_JSON, 10, "10", nil)
	sale := createSale(t, s, 4, "40")

	require.NoError(t, s.Bus.Drain(context.Background()))

	assert.Equal(t, pkgtypes.SaleStatus_Canceled, saleStatus(t, s, sale.ID))
	assert.Equal(t, 10, stock(t, s))
	assert.True(t, decimal.NewFromInt(10).Equal(balance(t, s)))
	assert.Empty(t, s.Payments.Payments())
	assert.Equal(t, []pkgtypes.EventType{
		pkgconstants.EventType_CreatedSale,
		pkgconstants.EventType_UpdatedInventory,
		pkgconstants.EventType_FailedPayment,
		pkgconstants.EventType_RollbackInventory,
	}, eventTypes(t, s))
}

func TestSaga_RedeliveryChangesNothing(t *testing.T) {
	scenarios := map[string]struct {
		stock   int
		balance string
		qty     int
		want    pkgtypes.SaleStatus
	}{
		"finalized": {stock: 10, balance: "100", qty: 3, want: pkgtypes.SaleStatus_Finalized},
		"no stock":  {stock: 1, balance: "100", qty: 3, want: pkgtypes.SaleStatus_Canceled},
		"no funds":  {stock: 10, balance: "1", qty: 3, want: pkgtypes.SaleStatus_Canceled},
	}
	for name, sc := range scenarios {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newSaga(t, pkgkafka.KafkaEncoder_JSON, sc.stock, sc.balance, nil)
			sale := createSale(t, s, sc.qty, "40")
			require.NoError(t, s.Bus.Drain(ctx))

			stockBefore := stock(t, s)
			balanceBefore := balance(t, s)
			paymentsBefore := len(s.Payments.Payments())

			for _, p := range []pkgconstants.Participant{pkgconstants.Participant_Sale, pkgconstants.Participant_Inventory, pkgconstants.Participant_Payment} {
				s.Bus.Rewind(p, 0)
			}
			require.NoError(t, s.Bus.Drain(ctx))

			assert.Equal(t, sc.want, saleStatus(t, s, sale.ID))
			assert.Equal(t, stockBefore, stock(t, s))
			assert.True(t, balanceBefore.Equal(balance(t, s)))
			assert.Len(t, s.Payments.Payments(), paymentsBefore)
		})
	}
}

func TestSaga_ConcurrentSalesCompeteForStock(t *testing.T) {
	s := newSaga(t, pkgkafka.KafkaEncoder_JSON, 5, "1000", nil)

	var ids []int64
	for i := 0; i < 4; i++ {
		ids = append(ids, createSale(t, s, 2, "10").ID)
	}
	require.NoError(t, s.Bus.Drain(context.Background()))

	finalized := 0
	for _, id := range ids {
		st := saleStatus(t, s, id)
		require.True(t, st.IsTerminal())
		if st == pkgtypes.SaleStatus_Finalized {
			finalized++
		}
	}
	assert.Equal(t, 2, finalized)
	assert.Equal(t, 1, stock(t, s))
	assert.True(t, decimal.NewFromInt(980).Equal(balance(t, s)))
}

// flakyPublisher fails the first n publishes, then forwards to the bus.
type flakyPublisher struct {
	mu   sync.Mutex
	next pkgtypes.Publisher
	n    int
}

func (p *flakyPublisher) Publish(ctx context.Context, env *pkgtypes.Envelope) error {
	p.mu.Lock()
	if p.n > 0 {
		p.n--
		p.mu.Unlock()
		return pkgerrors.NewTransportError(errors.New("broker unavailable"))
	}
	p.mu.Unlock()
	return p.next.Publish(ctx, env)
}

func TestSaga_PublishFailureIsRecoveredByRedelivery(t *testing.T) {
	enc := pkgkafka.NewJsonEncoder()
	b := bus.New(enc)
	flaky := &flakyPublisher{next: b, n: 1}
	s := New(b, Publishers{pkgconstants.Participant_Inventory: flaky})
	s.Inventory.SetStock(productID, 10)
	s.Payments.SetAccount(userID, "alice", decimal.NewFromInt(100))
	ctx := context.Background()

	sale := createSale(t, s, 3, "40")

	err := s.Bus.Drain(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTransportError(err))
	assert.Equal(t, 7, stock(t, s))
	assert.Equal(t, pkgtypes.SaleStatus_Pending, saleStatus(t, s, sale.ID))

	require.NoError(t, s.Bus.Drain(ctx))
	assert.Equal(t, pkgtypes.SaleStatus_Finalized, saleStatus(t, s, sale.ID))
	assert.Equal(t, 7, stock(t, s))
	assert.True(t, decimal.NewFromInt(60).Equal(balance(t, s)))
}

func TestSaga_UnknownProductStallsPending(t *testing.T) {
	s := newSaga(t, pkgkafka.KafkaEncoder_JSON, 10, "100", nil)
	sale, err := s.SaleService.Create(context.Background(), domain.CreateSaleRequest{
		UserID: userID, ProductID: 99, Quantity: 1, Value: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	require.NoError(t, s.Bus.Drain(context.Background()))
	assert.Equal(t, pkgtypes.SaleStatus_Pending, saleStatus(t, s, sale.ID))
	assert.Equal(t, []pkgtypes.EventType{pkgconstants.EventType_CreatedSale}, eventTypes(t, s))
}
