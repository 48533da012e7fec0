package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/angelmondragon/cartengine/pkg/logger"
	"go.uber.org/multierr"
)

// Handler receives published events.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is the write side of the bus used by the cart service and sweeper.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus fans events out to the handlers subscribed to their type.
type Bus struct {
	mu       sync.RWMutex
	handlers map[enums.CartEventType][]Handler
	logg     *logger.Logger
}

// NewBus builds an empty bus. logg may be nil.
func NewBus(logg *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[enums.CartEventType][]Handler),
		logg:     logg,
	}
}

// Subscribe registers handler for eventType.
func (b *Bus) Subscribe(eventType enums.CartEventType, handler Handler) error {
	if !eventType.IsValid() {
		return fmt.Errorf("unknown event type %q", eventType)
	}
	if handler == nil {
		return fmt.Errorf("handler required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers handler for every known event type.
func (b *Bus) SubscribeAll(handler Handler) error {
	for _, eventType := range enums.CartEventTypes() {
		if err := b.Subscribe(eventType, handler); err != nil {
			return err
		}
	}
	return nil
}

// Publish delivers event to every subscribed handler concurrently and
// returns once all of them finished. A failing or panicking handler never
// prevents delivery to the others; their errors are combined and returned.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	errs := make([]error, len(handlers))
	var wg sync.WaitGroup
	for i, handler := range handlers {
		wg.Add(1)
		go func(i int, handler Handler) {
			defer wg.Done()
			errs[i] = b.invoke(ctx, handler, event)
		}(i, handler)
	}
	wg.Wait()

	err := multierr.Combine(errs...)
	if err != nil && b.logg != nil {
		logCtx := b.logg.WithFields(ctx, map[string]any{
			"event_type": event.Type.String(),
			"event_id":   event.ID.String(),
			"user_id":    event.UserID,
		})
		b.logg.Warn(logCtx, fmt.Sprintf("event handlers failed: %v", err))
	}
	return err
}

func (b *Bus) invoke(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic on %s: %v", event.Type, r)
		}
	}()
	return handler.Handle(ctx, event)
}

// HandlerCount returns the number of handlers subscribed to eventType.
func (b *Bus) HandlerCount(eventType enums.CartEventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
