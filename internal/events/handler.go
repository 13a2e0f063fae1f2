// internal/events/handler.go
package events

import (
	"context"
	"fmt"
)

// Handler processes events of a specific type. Handlers run on the bus
// dispatcher and should return quickly.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// On adapts a handler of one concrete event type. Events of any other
// concrete type are reported as errors.
func On[E Event](fn func(ctx context.Context, event E) error) HandlerFunc {
	return func(ctx context.Context, event Event) error {
		e, ok := event.(E)
		if !ok {
			return fmt.Errorf("%s: unexpected event %T", event.Type(), event)
		}
		return fn(ctx, e)
	}
}

// Subscription is returned by Subscribe; Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	id  string
	bus *Bus
	typ EventType
}

func (s *subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id, s.typ)
}
