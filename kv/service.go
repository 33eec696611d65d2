package kv

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/caw/transport"
)

// Procedure paths of the key-value RPC service.
const (
	ServiceName     = "caw.kv.v1.KeyValueService"
	PutProcedure    = "/" + ServiceName + "/Put"
	GetProcedure    = "/" + ServiceName + "/Get"
	RemoveProcedure = "/" + ServiceName + "/Remove"
)

type PutRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type PutReply struct{}

type GetRequest struct {
	Key string `json:"key"`
}

type GetReply struct {
	Values []string `json:"values"`
}

type RemoveRequest struct {
	Key string `json:"key"`
}

type RemoveReply struct{}

// Service exposes a Store over connect.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService wraps store. A nil logger uses slog.Default.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Handlers returns the connect handlers keyed by procedure path.
func (s *Service) Handlers(opts ...connect.HandlerOption) map[string]http.Handler {
	opts = transport.HandlerOptions(opts...)
	return map[string]http.Handler{
		PutProcedure:    connect.NewUnaryHandler(PutProcedure, s.put, opts...),
		GetProcedure:    connect.NewUnaryHandler(GetProcedure, s.get, opts...),
		RemoveProcedure: connect.NewUnaryHandler(RemoveProcedure, s.remove, opts...),
	}
}

func (s *Service) put(ctx context.Context, req *connect.Request[PutRequest]) (*connect.Response[PutReply], error) {
	if err := s.store.Put(ctx, req.Msg.Key, req.Msg.Value); err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	s.logger.DebugContext(ctx, "put", slog.String("key", req.Msg.Key))
	return connect.NewResponse(&PutReply{}), nil
}

func (s *Service) get(ctx context.Context, req *connect.Request[GetRequest]) (*connect.Response[GetReply], error) {
	values, err := s.store.Get(ctx, req.Msg.Key)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	s.logger.DebugContext(ctx, "get", slog.String("key", req.Msg.Key), slog.Int("values", len(values)))
	return connect.NewResponse(&GetReply{Values: values}), nil
}

func (s *Service) remove(ctx context.Context, req *connect.Request[RemoveRequest]) (*connect.Response[RemoveReply], error) {
	if err := s.store.Remove(ctx, req.Msg.Key); err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	s.logger.DebugContext(ctx, "remove", slog.String("key", req.Msg.Key))
	return connect.NewResponse(&RemoveReply{}), nil
}
