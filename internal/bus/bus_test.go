package bus

import (
	"context"
	"errors"
	"testing"

	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgkafka "github.com/k-code-yt/saga-choreography/pkg/kafka"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInOrderToEverySubscriber(t *testing.T) {
	b := New(pkgkafka.NewJsonEncoder())
	ctx := context.Background()

	var a, c []int64
	b.Subscribe(pkgconstants.Participant_Sale, func(_ context.Context, env *pkgtypes.Envelope) error {
		a = append(a, env.Sale.ID)
		return nil
	})
	b.Subscribe(pkgconstants.Participant_Payment, func(_ context.Context, env *pkgtypes.Envelope) error {
		c = append(c, env.Sale.ID)
		return nil
	})

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, b.Publish(ctx, pkgtypes.NewEnvelope(pkgtypes.Sale{ID: id}, pkgconstants.EventType_CreatedSale)))
	}
	require.NoError(t, b.Drain(ctx))

	assert.Equal(t, []int64{1, 2, 3}, a)
	assert.Equal(t, []int64{1, 2, 3}, c)
}

func TestBus_FailedDeliveryIsRetried(t *testing.T) {
	b := New(pkgkafka.NewJsonEncoder())
	ctx := context.Background()

	fail := true
	delivered := 0
	b.Subscribe(pkgconstants.Participant_Inventory, func(context.Context, *pkgtypes.Envelope) error {
		if fail {
			fail = false
			return errors.New("db down")
		}
		delivered++
		return nil
	})

	require.NoError(t, b.Publish(ctx, pkgtypes.NewEnvelope(pkgtypes.Sale{ID: 1}, pkgconstants.EventType_CreatedSale)))
	assert.Error(t, b.Drain(ctx))
	assert.Equal(t, 0, delivered)

	require.NoError(t, b.Drain(ctx))
	assert.Equal(t, 1, delivered)
}

func TestBus_HandlerMayPublish(t *testing.T) {
	b := New(pkgkafka.NewJsonEncoder())
	ctx := context.Background()

	b.Subscribe(pkgconstants.Participant_Inventory, func(ctx context.Context, env *pkgtypes.Envelope) error {
		if env.SaleEvent == pkgconstants.EventType_CreatedSale {
			return b.Publish(ctx, pkgtypes.NewEnvelope(env.Sale, pkgconstants.EventType_UpdatedInventory))
		}
		return nil
	})

	require.NoError(t, b.Publish(ctx, pkgtypes.NewEnvelope(pkgtypes.Sale{ID: 1}, pkgconstants.EventType_CreatedSale)))
	require.NoError(t, b.Drain(ctx))

	events, err := b.Events()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, pkgconstants.EventType_UpdatedInventory, events[1].SaleEvent)
}

func TestBus_Rewind(t *testing.T) {
	b := New(pkgkafka.NewJsonEncoder())
	ctx := context.Background()

	seen := 0
	b.Subscribe(pkgconstants.Participant_Sale, func(context.Context, *pkgtypes.Envelope) error {
		seen++
		return nil
	})
	require.NoError(t, b.Publish(ctx, pkgtypes.NewEnvelope(pkgtypes.Sale{ID: 1}, pkgconstants.EventType_CreatedSale)))
	require.NoError(t, b.Drain(ctx))

	b.Rewind(pkgconstants.Participant_Sale, 0)
	require.NoError(t, b.Drain(ctx))
	assert.Equal(t, 2, seen)
}
