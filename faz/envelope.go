package faz

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/tailored-agentic-units/caw/caw"
)

// Envelope carries a reply together with the name of its concrete type so
// the receiver can decode it without knowing which event produced it.
type Envelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Wrap encodes reply and tags it with its type name.
func Wrap(reply caw.Reply) (Envelope, error) {
	data, err := sonic.Marshal(reply)
	if err != nil {
		return Envelope{}, fmt.Errorf("wrap %s: %w", reply.TypeName(), err)
	}
	return Envelope{Type: reply.TypeName(), Value: data}, nil
}

// Unwrap decodes env into the reply type its tag names.
func Unwrap(env Envelope) (caw.Reply, error) {
	reply, err := caw.NewReply(env.Type)
	if err != nil {
		return nil, err
	}
	if len(env.Value) > 0 {
		if err := sonic.Unmarshal(env.Value, reply); err != nil {
			return nil, fmt.Errorf("unwrap %s: %w", env.Type, err)
		}
	}
	return reply, nil
}
