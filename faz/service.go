package faz

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/bytedance/sonic"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/stream"
	"github.com/tailored-agentic-units/caw/transport"
)

// Procedure paths of the faz RPC service.
const (
	ServiceName     = "caw.faz.v1.FazService"
	HookProcedure   = "/" + ServiceName + "/Hook"
	UnhookProcedure = "/" + ServiceName + "/Unhook"
	EventProcedure  = "/" + ServiceName + "/Event"
	StreamProcedure = "/" + ServiceName + "/Stream"
)

type HookRequest struct {
	EventType     EventType `json:"event_type"`
	EventFunction string    `json:"event_function"`
}

type HookReply struct{}

type UnhookRequest struct {
	EventType EventType `json:"event_type"`
}

type UnhookReply struct{}

type EventRequest struct {
	EventType EventType       `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type EventReply struct {
	Payload Envelope `json:"payload"`
}

// StreamRequest opens a hashtag subscription. Payload decodes to
// caw.StreamRequest.
type StreamRequest struct {
	EventType EventType       `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Service exposes a Dispatcher over connect.
type Service struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewService wraps d. A nil logger uses slog.Default.
func NewService(d *Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{dispatcher: d, logger: logger}
}

// Handlers returns the connect handlers keyed by procedure path.
func (s *Service) Handlers(opts ...connect.HandlerOption) map[string]http.Handler {
	opts = transport.HandlerOptions(opts...)
	return map[string]http.Handler{
		HookProcedure:   connect.NewUnaryHandler(HookProcedure, s.hook, opts...),
		UnhookProcedure: connect.NewUnaryHandler(UnhookProcedure, s.unhook, opts...),
		EventProcedure:  connect.NewUnaryHandler(EventProcedure, s.event, opts...),
		StreamProcedure: connect.NewServerStreamHandler(StreamProcedure, s.stream, opts...),
	}
}

func (s *Service) hook(ctx context.Context, req *connect.Request[HookRequest]) (*connect.Response[HookReply], error) {
	if err := s.dispatcher.Hook(ctx, req.Msg.EventType, req.Msg.EventFunction); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&HookReply{}), nil
}

func (s *Service) unhook(ctx context.Context, req *connect.Request[UnhookRequest]) (*connect.Response[UnhookReply], error) {
	if err := s.dispatcher.Unhook(ctx, req.Msg.EventType); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&UnhookReply{}), nil
}

func (s *Service) event(ctx context.Context, req *connect.Request[EventRequest]) (*connect.Response[EventReply], error) {
	env, err := s.dispatcher.Event(ctx, req.Msg.EventType, req.Msg.Payload)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&EventReply{Payload: env}), nil
}

// stream parks for the life of the connection, forwarding every post
// published to the subscriber.
func (s *Service) stream(ctx context.Context, req *connect.Request[StreamRequest], out *connect.ServerStream[EventReply]) error {
	if req.Msg.EventType != EventStream {
		return connect.NewError(connect.CodeInvalidArgument, errors.New("stream requires the stream event type"))
	}

	var sr caw.StreamRequest
	if len(req.Msg.Payload) > 0 {
		if err := sonic.Unmarshal(req.Msg.Payload, &sr); err != nil {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	sub, err := s.dispatcher.Subscribe(ctx, sr)
	if err != nil {
		return connectError(err)
	}
	defer sub.Close()

	s.logger.InfoContext(
		ctx,
		"stream opened",
		slog.String("subscriber", sub.ID()),
		slog.String("hashtag", sr.Hashtag),
		slog.String("username", sr.Username),
	)

	for {
		env, err := sub.Next(ctx)
		if err != nil {
			s.logger.InfoContext(
				ctx,
				"stream closed",
				slog.String("subscriber", sub.ID()),
				slog.String("reason", err.Error()),
			)
			if errors.Is(err, stream.ErrDetached) {
				return connect.NewError(connect.CodeResourceExhausted, err)
			}
			return nil
		}

		if err := out.Send(&EventReply{Payload: env}); err != nil {
			return err
		}
	}
}
