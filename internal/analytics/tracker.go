package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/cartengine/internal/events"
	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/angelmondragon/cartengine/pkg/logger"
	"github.com/angelmondragon/cartengine/pkg/metrics"
	"go.uber.org/multierr"
)

const (
	MetricTotalEvents  = "total_events"
	MetricUniqueUsers  = "unique_users"
	MetricItemsAdded   = "items_added"
	MetricCartsExpired = "carts_expired"

	dailyCounterTTL = 48 * time.Hour
)

// TrackedEventTypes are the cart events the tracker subscribes to.
var TrackedEventTypes = []enums.CartEventType{
	enums.CartEventItemAdded,
	enums.CartEventCartExpired,
}

// Forwarder ships tracked events to a downstream sink.
type Forwarder interface {
	Forward(ctx context.Context, event events.Event) error
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(parts ...string) string
}

type subscriber interface {
	Subscribe(eventType enums.CartEventType, handler events.Handler) error
}

// TrackerParams configure the analytics tracker. Everything but the logger
// is optional.
type TrackerParams struct {
	Logger    *logger.Logger
	Metrics   *metrics.CartEventMetrics
	Counters  counterStore
	Forwarder Forwarder
}

// Tracker aggregates cart activity in memory and mirrors it to Prometheus,
// Redis daily counters and Pub/Sub when configured.
type Tracker struct {
	mu           sync.Mutex
	totalEvents  int
	itemsAdded   int
	cartsExpired int
	users        map[string]struct{}

	logg      *logger.Logger
	metrics   *metrics.CartEventMetrics
	counters  counterStore
	forwarder Forwarder
}

func NewTracker(params TrackerParams) *Tracker {
	return &Tracker{
		users:     make(map[string]struct{}),
		logg:      params.Logger,
		metrics:   params.Metrics,
		counters:  params.Counters,
		forwarder: params.Forwarder,
	}
}

// Subscribe registers the tracker for item_added and cart_expired.
func (t *Tracker) Subscribe(bus subscriber) error {
	for _, eventType := range TrackedEventTypes {
		if err := bus.Subscribe(eventType, t); err != nil {
			return fmt.Errorf("subscribe analytics to %s: %w", eventType, err)
		}
	}
	return nil
}

// Handle records one event. Downstream failures are returned to the bus but
// the in-memory aggregate is always updated.
func (t *Tracker) Handle(ctx context.Context, event events.Event) error {
	t.record(event)
	t.metrics.IncEvent(event.Type.String())
	if added, ok := event.Data.(events.ItemAdded); ok {
		t.metrics.AddItemsAdded(added.Quantity)
	}

	var errs error
	if t.counters != nil {
		day := event.OccurredAt.UTC().Format("20060102")
		key := t.counters.CounterKey("analytics", day, event.Type.String())
		if _, err := t.counters.IncrWithTTL(ctx, key, dailyCounterTTL); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("increment daily counter: %w", err))
		}
	}
	if t.forwarder != nil {
		if err := t.forwarder.Forward(ctx, event); err != nil {
			t.metrics.IncForwardFailure()
			errs = multierr.Append(errs, fmt.Errorf("forward analytics event: %w", err))
		}
	}
	if errs != nil && t.logg != nil {
		logCtx := t.logg.WithUserID(ctx, event.UserID)
		logCtx = t.logg.WithEventType(logCtx, event.Type.String())
		t.logg.Error(logCtx, "analytics sink failed", errs)
	}
	return errs
}

func (t *Tracker) record(event events.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalEvents++
	if event.UserID != "" {
		t.users[event.UserID] = struct{}{}
	}
	switch event.Type {
	case enums.CartEventItemAdded:
		t.itemsAdded++
	case enums.CartEventCartExpired:
		t.cartsExpired++
	}
}

// Metrics returns a snapshot of the aggregate counters.
func (t *Tracker) Metrics() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]int{
		MetricTotalEvents:  t.totalEvents,
		MetricUniqueUsers:  len(t.users),
		MetricItemsAdded:   t.itemsAdded,
		MetricCartsExpired: t.cartsExpired,
	}
}
