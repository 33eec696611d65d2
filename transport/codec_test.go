package transport_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/caw/transport"
)

type sample struct {
	Key    string   `json:"key"`
	Values []string `json:"values,omitempty"`
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := transport.Codec{}
	if codec.Name() != "json" {
		t.Fatalf("Name() = %q, want %q", codec.Name(), "json")
	}

	data, err := codec.Marshal(&sample{Key: "users", Values: []string{"alice", "bob", "alice"}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got sample
	if err := codec.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Key != "users" || len(got.Values) != 3 || got.Values[2] != "alice" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestCodec_UnmarshalInvalid(t *testing.T) {
	var got sample
	if err := (transport.Codec{}).Unmarshal([]byte("{not json"), &got); err == nil {
		t.Error("Unmarshal() expected error for malformed input")
	}
}

func TestLoggingInterceptor_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	interceptor := transport.NewLoggingInterceptor(logger)
	failing := interceptor(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, nil)
	})

	_, err := failing(context.Background(), connect.NewRequest(&sample{}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("code = %v, want %v", connect.CodeOf(err), connect.CodeNotFound)
	}
	if !strings.Contains(buf.String(), "rpc failed") || !strings.Contains(buf.String(), "code=not_found") {
		t.Errorf("log output = %q", buf.String())
	}
}
