package kv

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/caw/transport"
)

// Client is a Store backed by a remote Service.
type Client struct {
	put    *connect.Client[PutRequest, PutReply]
	get    *connect.Client[GetRequest, GetReply]
	remove *connect.Client[RemoveRequest, RemoveReply]
}

// NewClient targets the service at baseURL ("http://host:port"). A bare
// host:port is accepted and treated as plain HTTP.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = NormalizeURL(baseURL)
	opts = transport.ClientOptions(opts...)

	return &Client{
		put:    connect.NewClient[PutRequest, PutReply](httpClient, baseURL+PutProcedure, opts...),
		get:    connect.NewClient[GetRequest, GetReply](httpClient, baseURL+GetProcedure, opts...),
		remove: connect.NewClient[RemoveRequest, RemoveReply](httpClient, baseURL+RemoveProcedure, opts...),
	}
}

func (c *Client) Put(ctx context.Context, key, value string) error {
	if _, err := c.put.CallUnary(ctx, connect.NewRequest(&PutRequest{Key: key, Value: value})); err != nil {
		return fmt.Errorf("%w: put %s: %w", ErrBackend, key, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, key string) ([]string, error) {
	resp, err := c.get.CallUnary(ctx, connect.NewRequest(&GetRequest{Key: key}))
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrBackend, key, err)
	}
	if resp.Msg.Values == nil {
		return []string{}, nil
	}
	return resp.Msg.Values, nil
}

func (c *Client) Remove(ctx context.Context, key string) error {
	if _, err := c.remove.CallUnary(ctx, connect.NewRequest(&RemoveRequest{Key: key})); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrBackend, key, err)
	}
	return nil
}

// NormalizeURL prefixes a scheme onto bare host:port addresses and trims any
// trailing slash.
func NormalizeURL(addr string) string {
	addr = strings.TrimRight(addr, "/")
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return addr
}
