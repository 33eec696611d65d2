package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrDetached is returned by Next once the subscriber has been closed.
var ErrDetached = errors.New("subscriber detached")

// State is the lifecycle position of a Subscriber.
type State int32

const (
	StateRegistered State = iota
	StateDelivering
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateDelivering:
		return "delivering"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Subscriber buffers values published to one connection. Detached is
// terminal: a closed or timed-out subscriber never receives again.
type Subscriber[T any] struct {
	id      string
	hashtag string

	channel chan T
	timeout time.Duration
	state   atomic.Int32

	done      chan struct{}
	closeOnce sync.Once
}

// NewSubscriber creates a subscriber that detaches when ctx ends.
func NewSubscriber[T any](ctx context.Context, hashtag string, cfg Config) *Subscriber[T] {
	s := &Subscriber[T]{
		id:      newID(),
		hashtag: hashtag,
		channel: make(chan T, max(cfg.ChannelBufferSize, 1)),
		timeout: cfg.DeliveryTimeout(),
		done:    make(chan struct{}),
	}

	context.AfterFunc(ctx, s.Close)
	return s
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func (s *Subscriber[T]) ID() string      { return s.id }
func (s *Subscriber[T]) Hashtag() string { return s.hashtag }

func (s *Subscriber[T]) State() State {
	return State(s.state.Load())
}

// Deliver enqueues value. It reports false once the subscriber is detached,
// or when the buffer stays full past the delivery timeout, which also
// detaches it. Cancellation of ctx aborts this delivery without detaching.
func (s *Subscriber[T]) Deliver(ctx context.Context, value T) bool {
	if !s.state.CompareAndSwap(int32(StateRegistered), int32(StateDelivering)) {
		return false
	}

	var timeout <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s.channel <- value:
	case <-ctx.Done():
	case <-s.done:
		return false
	case <-timeout:
		s.Close()
		return false
	}

	return s.state.CompareAndSwap(int32(StateDelivering), int32(StateRegistered))
}

// Next parks until a value is delivered, ctx ends, or the subscriber is
// closed. Values already buffered are drained before ErrDetached is
// reported.
func (s *Subscriber[T]) Next(ctx context.Context) (T, error) {
	var zero T

	select {
	case value := <-s.channel:
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.done:
		select {
		case value := <-s.channel:
			return value, nil
		default:
			return zero, ErrDetached
		}
	}
}

// Close detaches the subscriber. The registry drops it on the next matching
// Publish.
func (s *Subscriber[T]) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateDetached))
		close(s.done)
	})
}

func (s *Subscriber[T]) QueueLength() int {
	return len(s.channel)
}
