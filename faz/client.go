package faz

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/bytedance/sonic"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/kv"
	"github.com/tailored-agentic-units/caw/transport"
)

// Client calls a remote faz Service. Errors carry the caw error kind of the
// RPC status.
type Client struct {
	hook   *connect.Client[HookRequest, HookReply]
	unhook *connect.Client[UnhookRequest, UnhookReply]
	event  *connect.Client[EventRequest, EventReply]
	stream *connect.Client[StreamRequest, EventReply]
}

// NewClient creates a Client for the faz service at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = kv.NormalizeURL(baseURL)
	opts = transport.ClientOptions(opts...)

	return &Client{
		hook:   connect.NewClient[HookRequest, HookReply](httpClient, baseURL+HookProcedure, opts...),
		unhook: connect.NewClient[UnhookRequest, UnhookReply](httpClient, baseURL+UnhookProcedure, opts...),
		event:  connect.NewClient[EventRequest, EventReply](httpClient, baseURL+EventProcedure, opts...),
		stream: connect.NewClient[StreamRequest, EventReply](httpClient, baseURL+StreamProcedure, opts...),
	}
}

// Hook binds t to the handler named name on the server.
func (c *Client) Hook(ctx context.Context, t EventType, name string) error {
	if _, err := c.hook.CallUnary(ctx, connect.NewRequest(&HookRequest{EventType: t, EventFunction: name})); err != nil {
		return fromConnectError(err)
	}
	return nil
}

// Unhook removes the server-side binding of t.
func (c *Client) Unhook(ctx context.Context, t EventType) error {
	if _, err := c.unhook.CallUnary(ctx, connect.NewRequest(&UnhookRequest{EventType: t})); err != nil {
		return fromConnectError(err)
	}
	return nil
}

// Event sends request, JSON-encoded, as the payload of t and returns the
// unwrapped reply.
func (c *Client) Event(ctx context.Context, t EventType, request any) (caw.Reply, error) {
	payload, err := sonic.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", t, err)
	}

	resp, err := c.event.CallUnary(ctx, connect.NewRequest(&EventRequest{EventType: t, Payload: payload}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t, fromConnectError(err))
	}
	return Unwrap(resp.Msg.Payload)
}

// Stream subscribes to hashtag as username and calls fn for every post
// received until ctx ends, the server closes the stream, or fn fails.
func (c *Client) Stream(ctx context.Context, hashtag, username string, fn func(caw.Post) error) error {
	payload, err := sonic.Marshal(caw.StreamRequest{Hashtag: hashtag, Username: username})
	if err != nil {
		return err
	}

	st, err := c.stream.CallServerStream(ctx, connect.NewRequest(&StreamRequest{EventType: EventStream, Payload: payload}))
	if err != nil {
		return fromConnectError(err)
	}
	defer st.Close()

	for st.Receive() {
		reply, err := Unwrap(st.Msg().Payload)
		if err != nil {
			return err
		}
		cr, ok := reply.(*caw.CawReply)
		if !ok {
			return fmt.Errorf("%w: unexpected %s on stream", caw.ErrInvalidArgument, reply.TypeName())
		}
		if err := fn(cr.Caw); err != nil {
			return err
		}
	}

	if err := st.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fromConnectError(err)
	}
	return nil
}
