// Package connect provides Connect RPC service implementations.
package connect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec marshals the plain Go messages of this package as JSON.
// It replaces connect's built-in "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// WithJSON returns the option that installs the JSON codec on a client or handler.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
