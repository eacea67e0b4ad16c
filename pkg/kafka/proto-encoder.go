package pkgkafka

import (
	"encoding/json"
	"fmt"
	"strconv"

	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoEncoder ships the envelope as a google.protobuf.Struct, so no generated code is needed.
// Struct numbers are doubles, so sale.id travels as a decimal string.
type ProtoEncoder struct {
	msgEncoderType KafkaEncoder
}

func NewProtoEncoder() *ProtoEncoder {
	return &ProtoEncoder{
		msgEncoderType: KafkaEncoder_PROTO,
	}
}

func (e *ProtoEncoder) Encode(env *pkgtypes.Envelope) ([]byte, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, st); err != nil {
		return nil, err
	}
	sale := st.GetFields()["sale"].GetStructValue()
	if sale == nil {
		return nil, fmt.Errorf("envelope without sale")
	}
	sale.Fields["id"] = structpb.NewStringValue(env.SaleID())
	return proto.Marshal(st)
}

func (e *ProtoEncoder) Decode(data []byte) (*pkgtypes.Envelope, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return nil, pkgerrors.NewJSONParsingError(err)
	}
	sale := st.GetFields()["sale"].GetStructValue()
	if sale == nil {
		return nil, pkgerrors.NewJSONParsingError(fmt.Errorf("missing sale struct"))
	}
	id, err := strconv.ParseInt(sale.GetFields()["id"].GetStringValue(), 10, 64)
	if err != nil {
		return nil, pkgerrors.NewJSONParsingError(err)
	}
	delete(sale.Fields, "id")

	raw, err := protojson.Marshal(st)
	if err != nil {
		return nil, pkgerrors.NewJSONParsingError(err)
	}
	env := &pkgtypes.Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, pkgerrors.NewJSONParsingError(err)
	}
	env.Sale.ID = id
	return env, nil
}

func (e *ProtoEncoder) GetType() KafkaEncoder {
	return e.msgEncoderType
}
