// Package transport holds the pieces shared by every RPC surface: the wire
// codec, the logging interceptor, and the HTTP server lifecycle.
package transport

import (
	"connectrpc.com/connect"
	"github.com/bytedance/sonic"
)

// CodecName is registered under connect's "json" name so clients send
// application/json (unary) and application/connect+json (streams).
const CodecName = "json"

// Codec serializes plain Go structs for connect. The services here carry
// struct messages rather than generated protobuf types.
type Codec struct{}

func (Codec) Name() string {
	return CodecName
}

func (Codec) Marshal(message any) ([]byte, error) {
	return sonic.Marshal(message)
}

func (Codec) Unmarshal(data []byte, message any) error {
	return sonic.Unmarshal(data, message)
}

// ClientOptions are the options every client in this module is built with.
func ClientOptions(extra ...connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, extra...)
}

// HandlerOptions are the options every handler in this module is built with.
func HandlerOptions(extra ...connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, extra...)
}
