package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartEventMetrics counts cart domain events observed by subscribers.
type CartEventMetrics struct {
	events      *prometheus.CounterVec
	itemsAdded  prometheus.Counter
	dropped     prometheus.Counter
	forwardFail prometheus.Counter
}

// NewCartEventMetrics registers the cart event metrics on the provided registerer.
func NewCartEventMetrics(reg prometheus.Registerer) *CartEventMetrics {
	if reg == nil {
		return &CartEventMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "events_total",
		Help:      "Cart domain events observed, by type.",
	}, []string{"type"})
	itemsAdded := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "items_added_quantity_total",
		Help:      "Units added to carts.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "notifications_dropped_total",
		Help:      "Realtime notifications dropped because a subscriber buffer was full.",
	})
	forwardFail := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analytics",
		Name:      "forward_failures_total",
		Help:      "Analytics events that could not be forwarded downstream.",
	})
	reg.MustRegister(events, itemsAdded, dropped, forwardFail)
	return &CartEventMetrics{
		events:      events,
		itemsAdded:  itemsAdded,
		dropped:     dropped,
		forwardFail: forwardFail,
	}
}

// IncEvent counts one event of the given type.
func (c *CartEventMetrics) IncEvent(eventType string) {
	if c == nil || c.events == nil {
		return
	}
	c.events.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// AddItemsAdded adds quantity to the items-added counter.
func (c *CartEventMetrics) AddItemsAdded(quantity int) {
	if c == nil || c.itemsAdded == nil || quantity <= 0 {
		return
	}
	c.itemsAdded.Add(float64(quantity))
}

func (c *CartEventMetrics) IncDropped() {
	if c == nil || c.dropped == nil {
		return
	}
	c.dropped.Inc()
}

func (c *CartEventMetrics) IncForwardFailure() {
	if c == nil || c.forwardFail == nil {
		return
	}
	c.forwardFail.Inc()
}
