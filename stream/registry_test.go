package stream_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/caw/stream"
)

type recorder struct {
	mu       sync.Mutex
	name     string
	alive    bool
	received []string
	log      *[]string
}

func (r *recorder) deliver(_ context.Context, value string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.log != nil {
		*r.log = append(*r.log, r.name)
	}
	if !r.alive {
		return false
	}
	r.received = append(r.received, value)
	return true
}

func TestRegistry_PublishDeliversToMatchingHashtags(t *testing.T) {
	r := stream.NewRegistry[string](nil)
	x := &recorder{alive: true}
	y := &recorder{alive: true}
	r.Subscribe("x", x.deliver)
	r.Subscribe("y", y.deliver)

	result := r.Publish(context.Background(), "post-0", "hello #x")

	if !slices.Equal(x.received, []string{"post-0"}) {
		t.Errorf("x received %v, want [post-0]", x.received)
	}
	if len(y.received) != 0 {
		t.Errorf("y received %v, want nothing", y.received)
	}
	if result != (stream.PublishResult{Matched: 1, Delivered: 1}) {
		t.Errorf("Publish() = %+v", result)
	}
}

func TestRegistry_SubscriptionOrder(t *testing.T) {
	r := stream.NewRegistry[string](nil)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		rec := &recorder{name: name, alive: true, log: &order}
		r.Subscribe("go", rec.deliver)
	}

	r.Publish(context.Background(), "p", "#go")

	if want := []string{"first", "second", "third"}; !slices.Equal(order, want) {
		t.Errorf("delivery order = %v, want %v", order, want)
	}
}

func TestRegistry_PrunesDeadSubscribers(t *testing.T) {
	r := stream.NewRegistry[string](nil)

	var order []string
	a := &recorder{name: "a", alive: true, log: &order}
	b := &recorder{name: "b", alive: true, log: &order}
	c := &recorder{name: "c", alive: true, log: &order}
	r.Subscribe("x", a.deliver)
	r.Subscribe("x", b.deliver)
	r.Subscribe("x", c.deliver)

	r.Publish(context.Background(), "p0", "#x")

	b.alive = false
	result := r.Publish(context.Background(), "p1", "#x")
	if result.Pruned != 1 || result.Delivered != 2 {
		t.Errorf("Publish() = %+v, want 2 delivered 1 pruned", result)
	}
	if got := r.Subscribers("x"); got != 2 {
		t.Errorf("Subscribers(x) = %d, want 2", got)
	}

	order = nil
	r.Publish(context.Background(), "p2", "#x")
	if want := []string{"a", "c"}; !slices.Equal(order, want) {
		t.Errorf("after prune, delivery order = %v, want %v", order, want)
	}
	if !slices.Equal(b.received, []string{"p0"}) {
		t.Errorf("pruned subscriber received %v, want only p0", b.received)
	}
}

func TestRegistry_LastPruneRemovesHashtag(t *testing.T) {
	r := stream.NewRegistry[string](nil)
	dead := &recorder{alive: false}
	r.Subscribe("x", dead.deliver)

	r.Publish(context.Background(), "p", "#x")

	if got := r.Subscribers("x"); got != 0 {
		t.Errorf("Subscribers(x) = %d, want 0", got)
	}
	if result := r.Publish(context.Background(), "p", "#x"); result.Matched != 0 {
		t.Errorf("Publish() after prune matched %d hashtags, want 0", result.Matched)
	}

	m := r.Metrics()
	if m.Subscribers != 0 || m.Pruned != 1 || m.Published != 2 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestRegistry_RepeatedTagDeliversOnce(t *testing.T) {
	r := stream.NewRegistry[string](nil)
	rec := &recorder{alive: true}
	r.Subscribe("x", rec.deliver)

	r.Publish(context.Background(), "p", "#x #x #x")

	if len(rec.received) != 1 {
		t.Errorf("received %d copies, want 1", len(rec.received))
	}
}

func TestRegistry_ConcurrentSubscribePublish(t *testing.T) {
	r := stream.NewRegistry[int](nil)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Subscribe("load", func(context.Context, int) bool {
				mu.Lock()
				count++
				mu.Unlock()
				return true
			})
		}()
	}
	wg.Wait()

	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Publish(context.Background(), i, "#load")
		}()
	}
	wg.Wait()

	if count != 200 {
		t.Errorf("deliveries = %d, want 200", count)
	}
}
