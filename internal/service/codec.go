// Package service exposes the catalog, membership, circulation, analytics
// and librarian auth components as Connect RPC services. Messages are plain
// Go structs carried by a JSON codec.
package service

import (
	"connectrpc.com/connect"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Codec is the JSON codec used by every service and client. It replaces
// Connect's built-in "json" codec, which only accepts protobuf messages.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// WithCodec returns the option installing Codec on a handler or client.
func WithCodec() connect.Option {
	return connect.WithCodec(Codec{})
}
