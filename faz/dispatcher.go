package faz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bytedance/sonic"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/kv"
	"github.com/tailored-agentic-units/caw/observability"
	"github.com/tailored-agentic-units/caw/stream"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHandlers overrides the default caw handler registry.
func WithHandlers(r *caw.Registry) Option {
	return func(d *Dispatcher) { d.handlers = r }
}

// WithStreamConfig overrides subscriber buffering and delivery timeout.
func WithStreamConfig(cfg stream.Config) Option {
	return func(d *Dispatcher) { d.streamConfig = cfg }
}

// WithLogger sets the logger used by the dispatcher and its stream registry.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// Dispatcher resolves hooked events to caw handlers, runs them against the
// store and fans new posts out to hashtag subscribers.
//
// Publishing happens after the handler's store writes have completed and
// outside the store's lock. The pair is not atomic: a crash, or an Unhook of
// EventCaw, between the two leaves a stored post that no subscriber saw.
//
// Fan-out runs under the stream registry's lock and waits on each full
// subscriber for up to the configured delivery timeout. K stalled
// subscribers can hold a caw event for K timeouts, and Subscribe blocks for
// as long.
type Dispatcher struct {
	store        kv.Store
	hooks        *Hooks
	handlers     *caw.Registry
	streams      *stream.Registry[Envelope]
	streamConfig stream.Config
	logger       *slog.Logger
	observer     observability.Observer
}

// NewDispatcher creates a Dispatcher over store with the default handlers
// and an slog-backed observer. Hooks already persisted in store stay bound.
func NewDispatcher(store kv.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:        store,
		hooks:        NewHooks(store),
		handlers:     caw.NewDefaultRegistry(),
		streamConfig: stream.DefaultConfig(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.observer == nil {
		d.observer = observability.NewSlogObserver(d.logger)
	}
	d.streams = stream.NewRegistry[Envelope](d.logger)
	return d
}

// Hook binds t to the handler named name, replacing any earlier binding.
// Unknown event types and blank names are rejected with InvalidArgument.
func (d *Dispatcher) Hook(ctx context.Context, t EventType, name string) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownEventType, t)
	}
	if name == "" {
		return fmt.Errorf("%w: handler name cannot be blank", caw.ErrInvalidArgument)
	}
	if err := d.hooks.Hook(ctx, t, name); err != nil {
		return err
	}

	d.emit(ctx, EventHooked, observability.LevelInfo, map[string]any{
		"event_type": t.String(),
		"handler":    name,
	})
	return nil
}

// Unhook removes the binding of t. Unhooking an unbound event is not an error.
func (d *Dispatcher) Unhook(ctx context.Context, t EventType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownEventType, t)
	}
	if err := d.hooks.Unhook(ctx, t); err != nil {
		return err
	}

	d.emit(ctx, EventUnhooked, observability.LevelInfo, map[string]any{
		"event_type": t.String(),
	})
	return nil
}

// HookAll binds every event type per DefaultHooks.
func (d *Dispatcher) HookAll(ctx context.Context) error {
	hooks := DefaultHooks()
	for t := EventRegisterUser; t <= EventStream; t++ {
		if err := d.Hook(ctx, t, hooks[t]); err != nil {
			return err
		}
	}
	return nil
}

// UnhookAll removes the bindings of every event type.
func (d *Dispatcher) UnhookAll(ctx context.Context) error {
	for t := EventRegisterUser; t <= EventStream; t++ {
		if err := d.Unhook(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Event runs the handler currently hooked to t with payload and returns its
// reply wrapped in an Envelope. Handler errors are returned as-is. For
// EventCaw the new post is then published to its hashtags' subscribers.
func (d *Dispatcher) Event(ctx context.Context, t EventType, payload json.RawMessage) (Envelope, error) {
	env, err := d.dispatch(ctx, t, payload)
	if err != nil {
		d.emit(ctx, EventDispatchError, observability.LevelWarning, map[string]any{
			"event_type": t.String(),
			"error":      err.Error(),
		})
		return Envelope{}, err
	}
	return env, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, t EventType, payload json.RawMessage) (Envelope, error) {
	replyType, ok := replyTypes[t]
	if !ok {
		return Envelope{}, fmt.Errorf("%w: %s has no reply shape", ErrUnknownEventType, t)
	}

	name, hooked, err := d.hooks.Lookup(ctx, t)
	if err != nil {
		return Envelope{}, err
	}
	if !hooked {
		return Envelope{}, fmt.Errorf("%w: %s", ErrNotHooked, t)
	}

	handler, ok := d.handlers.Lookup(name)
	if !ok {
		return Envelope{}, fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}

	out, err := handler(ctx, payload, d.store)
	if err != nil {
		return Envelope{}, err
	}

	reply, err := caw.NewReply(replyType)
	if err != nil {
		return Envelope{}, err
	}
	if err := sonic.Unmarshal(out, reply); err != nil {
		return Envelope{}, fmt.Errorf("decode %s reply from %s: %w", replyType, name, err)
	}
	env, err := Wrap(reply)
	if err != nil {
		return Envelope{}, err
	}

	d.emit(ctx, EventDispatch, observability.LevelVerbose, map[string]any{
		"event_type": t.String(),
		"handler":    name,
	})

	if t == EventCaw {
		d.publish(ctx, env, reply.(*caw.CawReply).Caw)
	}

	return env, nil
}

func (d *Dispatcher) publish(ctx context.Context, env Envelope, post caw.Post) {
	result := d.streams.Publish(ctx, env, post.Text)
	if result.Matched == 0 {
		return
	}

	d.emit(ctx, EventStreamPublish, observability.LevelVerbose, map[string]any{
		"caw_id":    post.ID,
		"matched":   result.Matched,
		"delivered": result.Delivered,
		"pruned":    result.Pruned,
	})
}

// Subscribe registers a subscriber for req.Hashtag. The subscriber lives
// until ctx ends or it is closed; the caller drains it with Next.
// EventStream must be hooked and req.Username must be a registered user.
func (d *Dispatcher) Subscribe(ctx context.Context, req caw.StreamRequest) (*stream.Subscriber[Envelope], error) {
	if req.Hashtag == "" || req.Username == "" {
		return nil, fmt.Errorf("%w: hashtag and username cannot be blank", caw.ErrInvalidArgument)
	}

	if _, hooked, err := d.hooks.Lookup(ctx, EventStream); err != nil {
		return nil, err
	} else if !hooked {
		return nil, fmt.Errorf("%w: %s", ErrNotHooked, EventStream)
	}

	exists, err := caw.UserExists(ctx, d.store, req.Username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s does not exist", caw.ErrFailedPrecondition, req.Username)
	}

	sub := stream.NewSubscriber[Envelope](ctx, req.Hashtag, d.streamConfig)
	d.streams.Subscribe(req.Hashtag, sub.Deliver)

	d.emit(ctx, EventStreamSubscribe, observability.LevelInfo, map[string]any{
		"subscriber": sub.ID(),
		"hashtag":    req.Hashtag,
		"username":   req.Username,
	})
	return sub, nil
}

// Subscribers returns the number of live subscriptions to hashtag.
func (d *Dispatcher) Subscribers(hashtag string) int {
	return d.streams.Subscribers(hashtag)
}

// StreamMetrics reports the stream registry's counters.
func (d *Dispatcher) StreamMetrics() stream.MetricsSnapshot {
	return d.streams.Metrics()
}

func (d *Dispatcher) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	d.observer.OnEvent(ctx, observability.NewEvent(t, level, "faz.Dispatcher", data))
}
