package stream

import (
	"context"
	"log/slog"
	"sync"
)

// Deliver pushes value to one subscriber and reports whether the subscriber
// is still alive.
type Deliver[T any] func(ctx context.Context, value T) bool

// PublishResult summarizes one Publish call.
type PublishResult struct {
	Matched   int // hashtags with at least one subscriber
	Delivered int
	Pruned    int
}

// Registry maps hashtags to ordered subscriber callbacks. Subscribe and
// Publish are serialized by one lock that is independent of any store lock.
type Registry[T any] struct {
	subscriptions map[string][]Deliver[T]
	mu            sync.Mutex

	logger  *slog.Logger
	metrics *Metrics
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default.
func NewRegistry[T any](logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[T]{
		subscriptions: make(map[string][]Deliver[T]),
		logger:        logger,
		metrics:       NewMetrics(),
	}
}

// Subscribe appends deliver to the callbacks for hashtag.
func (r *Registry[T]) Subscribe(hashtag string, deliver Deliver[T]) {
	r.mu.Lock()
	r.subscriptions[hashtag] = append(r.subscriptions[hashtag], deliver)
	count := len(r.subscriptions[hashtag])
	r.mu.Unlock()

	r.metrics.RecordSubscriber(1)
	r.logger.Debug(
		"subscriber registered",
		slog.String("hashtag", hashtag),
		slog.Int("subscribers", count),
	)
}

// Publish delivers value to the subscribers of every hashtag in text.
// Within a hashtag, earlier subscribers receive value first. A tag repeated
// in text is delivered once, so a subscriber never sees the same post twice
// from one call even though ExtractHashtags keeps duplicates. Subscribers
// whose callback reports not alive are removed; the others keep their
// relative order.
func (r *Registry[T]) Publish(ctx context.Context, value T, text string) PublishResult {
	var result PublishResult

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	for _, hashtag := range ExtractHashtags(text) {
		if seen[hashtag] {
			continue
		}
		seen[hashtag] = true

		callbacks, exists := r.subscriptions[hashtag]
		if !exists {
			continue
		}
		result.Matched++

		kept := callbacks[:0]
		for _, deliver := range callbacks {
			if deliver(ctx, value) {
				kept = append(kept, deliver)
				result.Delivered++
				continue
			}
			result.Pruned++
		}
		clear(callbacks[len(kept):])

		if len(kept) == 0 {
			delete(r.subscriptions, hashtag)
		} else {
			r.subscriptions[hashtag] = kept
		}
	}

	r.metrics.RecordPublished(1)
	r.metrics.RecordDelivered(result.Delivered)
	r.metrics.RecordPruned(result.Pruned)
	r.metrics.RecordSubscriber(-result.Pruned)

	r.logger.DebugContext(
		ctx,
		"post published",
		slog.Int("matched", result.Matched),
		slog.Int("delivered", result.Delivered),
		slog.Int("pruned", result.Pruned),
	)

	return result
}

// Subscribers returns the number of callbacks registered for hashtag.
func (r *Registry[T]) Subscribers(hashtag string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscriptions[hashtag])
}

func (r *Registry[T]) Metrics() MetricsSnapshot {
	return r.metrics.Snapshot()
}
