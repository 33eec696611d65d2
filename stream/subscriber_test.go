package stream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tailored-agentic-units/caw/stream"
)

func TestSubscriber_DeliverAndNext(t *testing.T) {
	sub := stream.NewSubscriber[string](context.Background(), "x", stream.DefaultConfig())
	defer sub.Close()

	if sub.State() != stream.StateRegistered {
		t.Fatalf("State() = %v, want registered", sub.State())
	}
	if sub.ID() == "" {
		t.Error("ID() is empty")
	}

	if !sub.Deliver(context.Background(), "p0") {
		t.Fatal("Deliver() = false, want true")
	}
	if sub.State() != stream.StateRegistered {
		t.Errorf("State() after delivery = %v, want registered", sub.State())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got != "p0" {
		t.Errorf("Next() = %q, want p0", got)
	}
}

func TestSubscriber_NextParksUntilDelivery(t *testing.T) {
	sub := stream.NewSubscriber[string](context.Background(), "x", stream.DefaultConfig())
	defer sub.Close()

	result := make(chan string, 1)
	go func() {
		v, _ := sub.Next(context.Background())
		result <- v
	}()

	select {
	case v := <-result:
		t.Fatalf("Next() returned %q before any delivery", v)
	case <-time.After(20 * time.Millisecond):
	}

	sub.Deliver(context.Background(), "late")

	select {
	case v := <-result:
		if v != "late" {
			t.Errorf("Next() = %q, want late", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Next() did not wake on delivery")
	}
}

func TestSubscriber_CloseDetaches(t *testing.T) {
	sub := stream.NewSubscriber[string](context.Background(), "x", stream.DefaultConfig())

	sub.Deliver(context.Background(), "buffered")
	sub.Close()

	if sub.State() != stream.StateDetached {
		t.Errorf("State() = %v, want detached", sub.State())
	}
	if sub.Deliver(context.Background(), "after") {
		t.Error("Deliver() after Close = true, want false")
	}

	if v, err := sub.Next(context.Background()); err != nil || v != "buffered" {
		t.Errorf("Next() = %q, %v, want buffered value drained first", v, err)
	}
	if _, err := sub.Next(context.Background()); !errors.Is(err, stream.ErrDetached) {
		t.Errorf("Next() error = %v, want %v", err, stream.ErrDetached)
	}
}

func TestSubscriber_ContextEndDetaches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := stream.NewSubscriber[string](ctx, "x", stream.DefaultConfig())

	cancel()

	deadline := time.Now().Add(time.Second)
	for sub.State() != stream.StateDetached {
		if time.Now().After(deadline) {
			t.Fatal("subscriber not detached after context cancel")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSubscriber_FullBufferTimesOut(t *testing.T) {
	cfg := stream.Config{ChannelBufferSize: 1, DeliveryTimeoutMS: 10}
	sub := stream.NewSubscriber[string](context.Background(), "x", cfg)

	if !sub.Deliver(context.Background(), "fills buffer") {
		t.Fatal("first Deliver() = false")
	}
	if sub.Deliver(context.Background(), "blocked") {
		t.Error("Deliver() on full buffer = true, want false after timeout")
	}
	if sub.State() != stream.StateDetached {
		t.Errorf("State() = %v, want detached", sub.State())
	}
}

func TestSubscriber_WithRegistry(t *testing.T) {
	r := stream.NewRegistry[string](nil)
	sub := stream.NewSubscriber[string](context.Background(), "x", stream.DefaultConfig())
	r.Subscribe(sub.Hashtag(), sub.Deliver)

	r.Publish(context.Background(), "p0", "#x")
	if v, _ := sub.Next(context.Background()); v != "p0" {
		t.Errorf("Next() = %q, want p0", v)
	}

	sub.Close()

	result := r.Publish(context.Background(), "p1", "#x")
	if result.Pruned != 1 {
		t.Errorf("Publish() pruned %d, want 1", result.Pruned)
	}
	if r.Subscribers("x") != 0 {
		t.Errorf("detached subscriber still registered")
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := stream.DefaultConfig()
	cfg.Merge(&stream.Config{DeliveryTimeoutMS: 250})

	if cfg.ChannelBufferSize != 64 {
		t.Errorf("ChannelBufferSize = %d, want 64", cfg.ChannelBufferSize)
	}
	if cfg.DeliveryTimeout() != 250*time.Millisecond {
		t.Errorf("DeliveryTimeout() = %v, want 250ms", cfg.DeliveryTimeout())
	}
}
