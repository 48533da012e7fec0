package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/cartengine/internal/events"
)

const defaultPublishTimeout = 10 * time.Second

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubForwarder publishes tracked events as JSON envelopes to a Pub/Sub topic.
type PubSubForwarder struct {
	publisher publisher
	timeout   time.Duration
}

// NewPubSubForwarder wraps a topic publisher obtained from pkg/pubsub.
func NewPubSubForwarder(p *gcppubsub.Publisher) (*PubSubForwarder, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return newForwarder(&gcpPublisher{Publisher: p}), nil
}

func newForwarder(p publisher) *PubSubForwarder {
	return &PubSubForwarder{publisher: p, timeout: defaultPublishTimeout}
}

// Forward publishes event and waits for the server acknowledgement.
func (f *PubSubForwarder) Forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":   event.ID.String(),
			"event_type": event.Type.String(),
			"user_id":    event.UserID,
		},
	}

	pubCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	result := f.publisher.Publish(pubCtx, msg)
	if result == nil {
		return errors.New("publish result is nil")
	}
	if _, err := result.Get(pubCtx); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
