package pkgkafka

import (
	"fmt"
	"math"
	"time"

	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	goavro "github.com/linkedin/goavro/v2"
	"github.com/shopspring/decimal"
)

// createdAt travels as epoch millis; value as a decimal string so no precision is lost.
const envelopeAvroSchema = `{
  "type": "record",
  "name": "SaleEnvelope",
  "namespace": "saga",
  "fields": [
    {"name": "sale", "type": {
      "type": "record",
      "name": "Sale",
      "fields": [
        {"name": "id", "type": "long"},
        {"name": "productId", "type": "int"},
        {"name": "userId", "type": "int"},
        {"name": "value", "type": "string"},
        {"name": "saleStatus", "type": "string"},
        {"name": "quantity", "type": "int"},
        {"name": "createdAt", "type": "long"}
      ]
    }},
    {"name": "saleEvent", "type": "string"}
  ]
}`

type AvroEncoder struct {
	msgEncoderType KafkaEncoder
	codec          *goavro.Codec
}

func NewAvroEncoder() (*AvroEncoder, error) {
	codec, err := goavro.NewCodec(envelopeAvroSchema)
	if err != nil {
		return nil, err
	}
	return &AvroEncoder{
		msgEncoderType: KafkaEncoder_AVRO,
		codec:          codec,
	}, nil
}

func (e *AvroEncoder) Encode(env *pkgtypes.Envelope) ([]byte, error) {
	productID, err := avroInt32("productId", env.Sale.ProductID)
	if err != nil {
		return nil, err
	}
	userID, err := avroInt32("userId", env.Sale.UserID)
	if err != nil {
		return nil, err
	}
	quantity, err := avroInt32("quantity", env.Sale.Quantity)
	if err != nil {
		return nil, err
	}

	native := map[string]any{
		"sale": map[string]any{
			"id":         env.Sale.ID,
			"productId":  productID,
			"userId":     userID,
			"value":      env.Sale.Value.String(),
			"saleStatus": string(env.Sale.Status),
			"quantity":   quantity,
			"createdAt":  env.Sale.CreatedAt.UnixMilli(),
		},
		"saleEvent": string(env.SaleEvent),
	}
	return e.codec.BinaryFromNative(nil, native)
}

func (e *AvroEncoder) Decode(data []byte) (*pkgtypes.Envelope, error) {
	native, _, err := e.codec.NativeFromBinary(data)
	if err != nil {
		return nil, pkgerrors.NewJSONParsingError(err)
	}
	rec, ok := native.(map[string]any)
	if !ok {
		return nil, pkgerrors.NewJSONParsingError(fmt.Errorf("unexpected avro datum %T", native))
	}
	saleRec, ok := rec["sale"].(map[string]any)
	if !ok {
		return nil, pkgerrors.NewJSONParsingError(fmt.Errorf("missing sale record"))
	}

	value, err := decimal.NewFromString(avroString(saleRec["value"]))
	if err != nil {
		return nil, pkgerrors.NewJSONParsingError(err)
	}

	return &pkgtypes.Envelope{
		Sale: pkgtypes.Sale{
			ID:        avroInt64(saleRec["id"]),
			ProductID: int(avroInt64(saleRec["productId"])),
			UserID:    int(avroInt64(saleRec["userId"])),
			Value:     value,
			Status:    pkgtypes.SaleStatus(avroString(saleRec["saleStatus"])),
			Quantity:  int(avroInt64(saleRec["quantity"])),
			CreatedAt: time.UnixMilli(avroInt64(saleRec["createdAt"])).UTC(),
		},
		SaleEvent: pkgtypes.EventType(avroString(rec["saleEvent"])),
	}, nil
}

func (e *AvroEncoder) GetType() KafkaEncoder {
	return e.msgEncoderType
}

func avroInt32(field string, v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%s %d does not fit an avro int", field, v)
	}
	return int32(v), nil
}

func avroInt64(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func avroString(v any) string {
	s, _ := v.(string)
	return s
}
