package domain

import (
	"testing"

	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStock_Debit(t *testing.T) {
	s := &Stock{ProductID: 1, Quantity: 10}
	require.NoError(t, s.Debit(4))
	assert.Equal(t, 6, s.Quantity)

	err := s.Debit(7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, pkgerrors.IsBusinessRuleError(err))
	assert.Equal(t, 6, s.Quantity)
}

func TestStock_DebitExactQuantity(t *testing.T) {
	s := &Stock{ProductID: 1, Quantity: 3}
	require.NoError(t, s.Debit(3))
	assert.Equal(t, 0, s.Quantity)
}

func TestReservation_Release(t *testing.T) {
	r := NewReservation(9, 1, 2)
	assert.False(t, r.IsReleased())
	r.Release()
	assert.True(t, r.IsReleased())
}

func TestFromEnvelope(t *testing.T) {
	sale := pkgtypes.Sale{ID: 1}

	ev, ok := FromEnvelope(pkgtypes.NewEnvelope(sale, pkgconstants.EventType_CreatedSale))
	require.True(t, ok)
	assert.IsType(t, SaleCreated{}, ev)

	ev, ok = FromEnvelope(pkgtypes.NewEnvelope(sale, pkgconstants.EventType_FailedPayment))
	require.True(t, ok)
	assert.IsType(t, PaymentFailed{}, ev)

	ev, ok = FromEnvelope(pkgtypes.NewEnvelope(sale, pkgconstants.EventType_RollbackInventory))
	require.True(t, ok)
	assert.IsType(t, InventoryRolledBack{}, ev)

	for _, skipped := range []pkgtypes.EventType{pkgconstants.EventType_UpdatedInventory, pkgconstants.EventType_ValidatedPayment, "UNKNOWN"} {
		_, ok = FromEnvelope(pkgtypes.NewEnvelope(sale, skipped))
		assert.False(t, ok, skipped)
	}
}
