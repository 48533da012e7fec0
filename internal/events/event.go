package events

import (
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is the envelope published for every cart mutation.
type Event struct {
	ID         uuid.UUID           `json:"id"`
	Type       enums.CartEventType `json:"type"`
	UserID     string              `json:"user_id"`
	OccurredAt time.Time           `json:"occurred_at"`
	Data       any                 `json:"data"`
}

// New builds an envelope with a fresh id.
func New(eventType enums.CartEventType, userID string, occurredAt time.Time, data any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
		Data:       data,
	}
}

type ItemAdded struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type ItemUpdated struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type ItemRemoved struct {
	ProductID int64 `json:"product_id"`
}

type CartCleared struct {
	RemovedLines int `json:"removed_lines"`
}

type CouponApplied struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type CartShared struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CartExpired is emitted exactly once when the sweeper expires a cart.
type CartExpired struct {
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
