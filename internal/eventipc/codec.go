package eventipc

import "encoding/json"

// jsonCodec implements encoding.Codec (Marshal/Unmarshal/Name) so the
// hand-written service descriptor can move EventRequest/EventReply values
// over the wire without a protobuf-generated message type. Installed via
// grpc.ForceServerCodec on the server and grpc.ForceCodec on the client.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}
