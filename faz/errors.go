package faz

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/caw/caw"
)

// Dispatcher resolution errors. Both wrap caw.ErrNotFound.
var (
	ErrNotHooked        = fmt.Errorf("%w: event is not hooked", caw.ErrNotFound)
	ErrHandlerNotFound  = fmt.Errorf("%w: function call not found", caw.ErrNotFound)
	ErrUnknownEventType = fmt.Errorf("%w: unknown event type", caw.ErrInvalidArgument)
)

var errorCodes = []struct {
	kind error
	code connect.Code
}{
	{caw.ErrInvalidArgument, connect.CodeInvalidArgument},
	{caw.ErrAlreadyExists, connect.CodeAlreadyExists},
	{caw.ErrNotFound, connect.CodeNotFound},
	{caw.ErrFailedPrecondition, connect.CodeFailedPrecondition},
	{caw.ErrUnavailable, connect.CodeUnavailable},
}

// connectError converts a dispatcher or handler error into an RPC status.
func connectError(err error) error {
	for _, e := range errorCodes {
		if errors.Is(err, e.kind) {
			return connect.NewError(e.code, err)
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}

// fromConnectError restores the caw error kind of an RPC failure so callers
// can inspect it with errors.Is.
func fromConnectError(err error) error {
	code := connect.CodeOf(err)
	msg := err.Error()
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		msg = cerr.Message()
	}
	for _, e := range errorCodes {
		if e.code == code {
			return fmt.Errorf("%w: %s", e.kind, trimKind(msg, e.kind))
		}
	}
	return err
}

func trimKind(msg string, kind error) string {
	prefix := kind.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
