package pkgkafka

import (
	"encoding/json"
	"fmt"

	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

type KafkaEncoder string

const (
	KafkaEncoder_JSON  KafkaEncoder = "json"
	KafkaEncoder_AVRO  KafkaEncoder = "avro"
	KafkaEncoder_PROTO KafkaEncoder = "proto"
)

// MsgEncoder is the wire codec for envelopes. Every participant must use the same one.
type MsgEncoder interface {
	Encode(env *pkgtypes.Envelope) ([]byte, error)
	Decode(data []byte) (*pkgtypes.Envelope, error)
	GetType() KafkaEncoder
}

func NewMsgEncoder(encoderType KafkaEncoder) (MsgEncoder, error) {
	switch encoderType {
	case KafkaEncoder_AVRO:
		return NewAvroEncoder()
	case KafkaEncoder_PROTO:
		return NewProtoEncoder(), nil
	case KafkaEncoder_JSON, "":
		return NewJsonEncoder(), nil
	}
	return nil, fmt.Errorf("unknown encoder type %q", encoderType)
}

type JsonEncoder struct {
	msgEncoderType KafkaEncoder
}

func NewJsonEncoder() *JsonEncoder {
	return &JsonEncoder{
		msgEncoderType: KafkaEncoder_JSON,
	}
}

func (e *JsonEncoder) Encode(env *pkgtypes.Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func (e *JsonEncoder) Decode(data []byte) (*pkgtypes.Envelope, error) {
	env := &pkgtypes.Envelope{}
	err := json.Unmarshal(data, env)
	if err != nil {
		return nil, pkgerrors.NewJSONParsingError(err)
	}
	return env, nil
}

func (e *JsonEncoder) GetType() KafkaEncoder {
	return e.msgEncoderType
}
