package faz

import (
	"fmt"
	"strconv"

	"github.com/tailored-agentic-units/caw/caw"
	"github.com/tailored-agentic-units/caw/observability"
)

// EventType identifies an abstract event that a handler can be hooked to.
type EventType int32

const (
	EventRegisterUser EventType = iota
	EventCaw
	EventFollow
	EventRead
	EventProfile
	EventStream
)

var eventNames = map[EventType]string{
	EventRegisterUser: "registeruser",
	EventCaw:          "caw",
	EventFollow:       "follow",
	EventRead:         "read",
	EventProfile:      "profile",
	EventStream:       "stream",
}

// replyTypes selects the reply shape each dispatchable event decodes into.
// EventStream has none; it is served by Subscribe.
var replyTypes = map[EventType]string{
	EventRegisterUser: caw.RegisterUserReplyType,
	EventCaw:          caw.CawReplyType,
	EventFollow:       caw.FollowReplyType,
	EventRead:         caw.ReadReplyType,
	EventProfile:      caw.ProfileReplyType,
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return strconv.Itoa(int(t))
}

// Key is the store key holding the event's hook bindings.
func (t EventType) Key() string {
	return strconv.Itoa(int(t))
}

func (t EventType) Valid() bool {
	_, ok := eventNames[t]
	return ok
}

// ParseEventType accepts an event name ("caw") or its number ("1").
func ParseEventType(s string) (EventType, error) {
	for t, name := range eventNames {
		if name == s {
			return t, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && EventType(n).Valid() {
		return EventType(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, s)
}

// DefaultHooks binds every event type to the handler of the same name.
func DefaultHooks() map[EventType]string {
	hooks := make(map[EventType]string, len(eventNames))
	for t, name := range eventNames {
		hooks[t] = name
	}
	return hooks
}

// Dispatcher event types.
const (
	EventHooked          observability.EventType = "faz.hook"
	EventUnhooked        observability.EventType = "faz.unhook"
	EventDispatch        observability.EventType = "faz.event.dispatch"
	EventDispatchError   observability.EventType = "faz.event.error"
	EventStreamSubscribe observability.EventType = "faz.stream.subscribe"
	EventStreamPublish   observability.EventType = "faz.stream.publish"
)
