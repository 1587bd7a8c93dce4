package electy

import (
	"github.com/pkg/errors"
	"google.golang.org/grpc/encoding"
)

// codecName is the content subtype used by the election service
const codecName = "electy"

// deliverRequest is the request of the Deliver rpc
type deliverRequest struct {
	Envelope[string]
}

// deliverResponse is the empty response of the Deliver rpc
type deliverResponse struct{}

// wireCodec encodes election rpcs with the protobuf wire format
type wireCodec struct{}

func init() {
	encoding.RegisterCodec(wireCodec{})
}

func (wireCodec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *deliverRequest:
		return MarshalEnvelope(m.Envelope), nil
	case *deliverResponse:
		return []byte{}, nil
	}
	return nil, errors.Errorf("electy codec cannot marshal %T", v)
}

func (wireCodec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *deliverRequest:
		envelope, err := UnmarshalEnvelope(data)
		if err != nil {
			return err
		}
		m.Envelope = envelope
		return nil
	case *deliverResponse:
		return nil
	}
	return errors.Errorf("electy codec cannot unmarshal %T", v)
}

func (wireCodec) Name() string {
	return codecName
}
