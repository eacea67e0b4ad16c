package domain

import (
	"testing"

	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_Withdraw(t *testing.T) {
	a := &Account{ID: 1, Balance: decimal.RequireFromString("100.50")}

	require.NoError(t, a.Withdraw(decimal.RequireFromString("100.50")))
	assert.True(t, a.Balance.IsZero())

	err := a.Withdraw(decimal.RequireFromString("0.01"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, a.Balance.IsZero())
}

func TestNewPayment(t *testing.T) {
	p := NewPayment(3, 42, decimal.NewFromInt(12))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, int64(42), p.SaleID)
	assert.NotEqual(t, p.ID, NewPayment(3, 42, decimal.NewFromInt(12)).ID)
}

func TestFromEnvelope(t *testing.T) {
	ev, ok := FromEnvelope(pkgtypes.NewEnvelope(pkgtypes.Sale{ID: 1}, pkgconstants.EventType_UpdatedInventory))
	require.True(t, ok)
	assert.IsType(t, InventoryUpdated{}, ev)

	_, ok = FromEnvelope(pkgtypes.NewEnvelope(pkgtypes.Sale{ID: 1}, pkgconstants.EventType_CreatedSale))
	assert.False(t, ok)
}
