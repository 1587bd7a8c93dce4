package electy

import (
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Envelopes are encoded with the protobuf wire format
// matching the following message:
//
//	message Envelope {
//	  bytes from = 1;
//	  bytes to = 2;
//	  uint32 kind = 3;
//	  uint64 epoch = 4;
//	}
const (
	fieldFrom  protowire.Number = 1
	fieldTo    protowire.Number = 2
	fieldKind  protowire.Number = 3
	fieldEpoch protowire.Number = 4
)

// MarshalEnvelope permits to encode an envelope in protobuf wire format
func MarshalEnvelope(envelope Envelope[string]) []byte {
	b := make([]byte, 0, 16+len(envelope.From)+len(envelope.To))
	b = protowire.AppendTag(b, fieldFrom, protowire.BytesType)
	b = protowire.AppendString(b, envelope.From)
	b = protowire.AppendTag(b, fieldTo, protowire.BytesType)
	b = protowire.AppendString(b, envelope.To)
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(envelope.Message.Kind))
	b = protowire.AppendTag(b, fieldEpoch, protowire.VarintType)
	b = protowire.AppendVarint(b, envelope.Message.Epoch)
	return b
}

// UnmarshalEnvelope permits to decode an envelope from protobuf wire format.
// Unknown fields are skipped
func UnmarshalEnvelope(data []byte) (Envelope[string], error) {
	var envelope Envelope[string]
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return envelope, errors.Wrap(ErrMalformedMessage, protowire.ParseError(n).Error())
		}
		data = data[n:]

		switch {
		case num == fieldFrom && typ == protowire.BytesType:
			envelope.From, n = protowire.ConsumeString(data)
		case num == fieldTo && typ == protowire.BytesType:
			envelope.To, n = protowire.ConsumeString(data)
		case num == fieldKind && typ == protowire.VarintType:
			var kind uint64
			kind, n = protowire.ConsumeVarint(data)
			if kind <= math.MaxUint32 {
				envelope.Message.Kind = MessageKind(kind)
			}
		case num == fieldEpoch && typ == protowire.VarintType:
			envelope.Message.Epoch, n = protowire.ConsumeVarint(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return envelope, errors.Wrapf(ErrMalformedMessage, "field %d: %s", num, protowire.ParseError(n))
		}
		data = data[n:]
	}

	if !envelope.Message.Kind.valid() {
		return envelope, errors.Wrapf(ErrUnknownMessageKind, "kind %d", envelope.Message.Kind)
	}
	return envelope, nil
}
