package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/cartengine/internal/events"
	"github.com/angelmondragon/cartengine/pkg/logger"
	"github.com/angelmondragon/cartengine/pkg/metrics"
	"github.com/google/uuid"
)

const (
	groupPrefix       = "cart_"
	defaultBufferSize = 16
)

var errUserIDRequired = errors.New("user id is required")

// GroupName is the per-user group every cart event is pushed to.
func GroupName(userID string) string {
	return groupPrefix + userID
}

// Notification is what a subscriber receives.
type Notification struct {
	Group string       `json:"group"`
	Event events.Event `json:"event"`
}

// Subscription is one connection joined to a user's group.
type Subscription struct {
	id    uuid.UUID
	group string
	ch    chan Notification
	once  sync.Once
}

func (s *Subscription) ID() uuid.UUID { return s.id }

func (s *Subscription) Group() string { return s.group }

// C yields notifications until the subscription leaves its group.
func (s *Subscription) C() <-chan Notification { return s.ch }

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

type allSubscriber interface {
	SubscribeAll(handler events.Handler) error
}

// HubParams configure a Hub. All fields are optional.
type HubParams struct {
	Logger     *logger.Logger
	Metrics    *metrics.CartEventMetrics
	BufferSize int
}

// Hub fans cart events out to the subscriptions of the owning user's group.
// Delivery never blocks the publisher; a full buffer drops the notification.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[uuid.UUID]*Subscription
	buffer  int
	logg    *logger.Logger
	metrics *metrics.CartEventMetrics
}

func NewHub(params HubParams) *Hub {
	buffer := params.BufferSize
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	return &Hub{
		groups:  make(map[string]map[uuid.UUID]*Subscription),
		buffer:  buffer,
		logg:    params.Logger,
		metrics: params.Metrics,
	}
}

// Subscribe registers the hub for every cart event type.
func (h *Hub) Subscribe(bus allSubscriber) error {
	return bus.SubscribeAll(h)
}

// Join adds a new subscription to userID's group.
func (h *Hub) Join(userID string) (*Subscription, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errUserIDRequired
	}
	sub := &Subscription{
		id:    uuid.New(),
		group: GroupName(userID),
		ch:    make(chan Notification, h.buffer),
	}
	h.mu.Lock()
	members, ok := h.groups[sub.group]
	if !ok {
		members = make(map[uuid.UUID]*Subscription)
		h.groups[sub.group] = members
	}
	members[sub.id] = sub
	h.mu.Unlock()
	return sub, nil
}

// Leave removes sub from its group and closes its channel. Calling it twice
// is harmless.
func (h *Hub) Leave(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	if members, ok := h.groups[sub.group]; ok {
		delete(members, sub.id)
		if len(members) == 0 {
			delete(h.groups, sub.group)
		}
	}
	sub.close()
	h.mu.Unlock()
}

// Handle pushes event to the members of the event user's group.
func (h *Hub) Handle(ctx context.Context, event events.Event) error {
	group := GroupName(event.UserID)
	note := Notification{Group: group, Event: event}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.groups[group] {
		select {
		case sub.ch <- note:
		default:
			h.metrics.IncDropped()
			if h.logg != nil {
				logCtx := h.logg.WithFields(ctx, map[string]any{
					"group":           group,
					"subscription_id": sub.id.String(),
					"event_type":      event.Type.String(),
				})
				h.logg.Warn(logCtx, "realtime buffer full; notification dropped")
			}
		}
	}
	return nil
}

// Members reports how many subscriptions are joined to userID's group.
func (h *Hub) Members(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[GroupName(userID)])
}
