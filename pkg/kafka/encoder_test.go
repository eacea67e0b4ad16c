package pkgkafka

import (
	"math"
	"testing"
	"time"

	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEnvelope() *pkgtypes.Envelope {
	return pkgtypes.NewEnvelope(pkgtypes.Sale{
		ID:        42,
		ProductID: 7,
		UserID:    3,
		Value:     decimal.RequireFromString("199.99"),
		Status:    pkgtypes.SaleStatus_Pending,
		Quantity:  2,
		CreatedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}, pkgconstants.EventType_CreatedSale)
}

func TestJsonEncoder_WireShape(t *testing.T) {
	enc := NewJsonEncoder()
	b, err := enc.Encode(sampleEnvelope())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"sale": {"id": 42, "productId": 7, "userId": 3, "value": "199.99",
		         "saleStatus": "PENDING", "quantity": 2, "createdAt": "2024-05-01T10:30:00Z"},
		"saleEvent": "CREATED_SALE"
	}`, string(b))
}

func TestEncoders_PreserveEnvelope(t *testing.T) {
	for _, typ := range []KafkaEncoder{KafkaEncoder_JSON, KafkaEncoder_AVRO, KafkaEncoder_PROTO} {
		t.Run(string(typ), func(t *testing.T) {
			enc, err := NewMsgEncoder(typ)
			require.NoError(t, err)
			assert.Equal(t, typ, enc.GetType())

			in := sampleEnvelope()
			b, err := enc.Encode(in)
			require.NoError(t, err)

			out, err := enc.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, in.SaleEvent, out.SaleEvent)
			assert.Equal(t, in.Sale.ID, out.Sale.ID)
			assert.True(t, in.Sale.Value.Equal(out.Sale.Value))
			assert.True(t, in.Sale.CreatedAt.Equal(out.Sale.CreatedAt))
			assert.Equal(t, in.Sale.Quantity, out.Sale.Quantity)
			assert.Equal(t, in.Sale.Status, out.Sale.Status)
		})
	}
}

func TestJsonEncoder_DecodeGarbage(t *testing.T) {
	_, err := NewJsonEncoder().Decode([]byte("{not json"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsJSONParsingError(err))
}

func TestNewMsgEncoder_Unknown(t *testing.T) {
	_, err := NewMsgEncoder("xml")
	assert.Error(t, err)
}

func TestEncoders_KeepIDsBeyondFloatPrecision(t *testing.T) {
	for _, typ := range []KafkaEncoder{KafkaEncoder_JSON, KafkaEncoder_AVRO, KafkaEncoder_PROTO} {
		t.Run(string(typ), func(t *testing.T) {
			enc, err := NewMsgEncoder(typ)
			require.NoError(t, err)

			in := sampleEnvelope()
			in.Sale.ID = 1<<53 + 1
			b, err := enc.Encode(in)
			require.NoError(t, err)

			out, err := enc.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, int64(1<<53+1), out.Sale.ID)
		})
	}
}

func TestAvroEncoder_RejectsValuesOutsideInt32(t *testing.T) {
	enc, err := NewAvroEncoder()
	require.NoError(t, err)

	in := sampleEnvelope()
	in.Sale.Quantity = 1<<32 + 2
	_, err = enc.Encode(in)
	assert.ErrorContains(t, err, "quantity")

	in = sampleEnvelope()
	in.Sale.UserID = math.MaxInt32 + 1
	_, err = enc.Encode(in)
	assert.ErrorContains(t, err, "userId")

	in = sampleEnvelope()
	in.Sale.Quantity = math.MaxInt32
	_, err = enc.Encode(in)
	assert.NoError(t, err)
}
