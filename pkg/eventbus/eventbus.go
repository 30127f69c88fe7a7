package eventbus

import "context"

// Event is anything that can travel over a Bus.
type Event interface {
	Type() string
}

// HandlerFunc processes one event.
type HandlerFunc func(ctx context.Context, event Event) error

// Bus defines the contract for publishing and subscribing to events.
type Bus interface {
	Register(eventType string, handler HandlerFunc)
	Emit(ctx context.Context, event Event) error
}
