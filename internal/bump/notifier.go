package bump

import (
	"context"
	"fmt"

	"github.com/sblp/sblpd/internal/bus"
)

// Handler is a user-supplied bump handler. Its result is serialized into the
// HTTP response body. The handler receives only the mapped request, no
// transport context.
type Handler func(ctx context.Context, req MappedBumpRequest) (interface{}, error)

// Notifier delivers an accepted bump to its consumer. Exactly one variant is
// active per Client: a direct handler function or the event bus.
type Notifier interface {
	Notify(ctx context.Context, req MappedBumpRequest) (interface{}, error)
}

// HandlerNotifier invokes a registered handler function. Panics inside the
// handler are recovered here so a misbehaving handler can never take the
// listener down.
type HandlerNotifier struct {
	Handler Handler
}

func (n *HandlerNotifier) Notify(ctx context.Context, req MappedBumpRequest) (result interface{}, err error) {
	if n == nil || n.Handler == nil {
		return nil, fmt.Errorf("no bump handler registered")
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("bump handler panicked: %v", r)
		}
	}()

	return n.Handler(ctx, req)
}

// Ack is the default acknowledgement returned when delivery happens over the
// event bus and there is no handler result to relay.
type Ack struct {
	Delivered bool   `json:"delivered"`
	Event     string `json:"event"`
}

// BusNotifier emits EventRequestStart on the event bus with the mapped
// request as payload. Listener invocation is the bus's concern; the notifier
// only guarantees the emission and payload shape.
type BusNotifier struct {
	Bus    *bus.Bus
	Source string
}

func (n *BusNotifier) Notify(ctx context.Context, req MappedBumpRequest) (interface{}, error) {
	if n == nil || n.Bus == nil {
		return nil, fmt.Errorf("event bus not configured")
	}

	n.Bus.Publish(bus.New(EventRequestStart, n.source(), req))
	return Ack{Delivered: true, Event: EventRequestStart}, nil
}

func (n *BusNotifier) source() string {
	if n.Source != "" {
		return n.Source
	}
	return "sblpd"
}
