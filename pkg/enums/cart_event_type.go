package enums

import "fmt"

// CartEventType names the domain events published after cart mutations.
type CartEventType string

const (
	CartEventItemAdded     CartEventType = "item_added"
	CartEventItemUpdated   CartEventType = "item_updated"
	CartEventItemRemoved   CartEventType = "item_removed"
	CartEventCartCleared   CartEventType = "cart_cleared"
	CartEventCouponApplied CartEventType = "coupon_applied"
	CartEventCartShared    CartEventType = "cart_shared"
	CartEventCartExpired   CartEventType = "cart_expired"
)

var validCartEventTypes = []CartEventType{
	CartEventItemAdded,
	CartEventItemUpdated,
	CartEventItemRemoved,
	CartEventCartCleared,
	CartEventCouponApplied,
	CartEventCartShared,
	CartEventCartExpired,
}

// CartEventTypes returns every known event type.
func CartEventTypes() []CartEventType {
	out := make([]CartEventType, len(validCartEventTypes))
	copy(out, validCartEventTypes)
	return out
}

// String implements fmt.Stringer.
func (c CartEventType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartEventType.
func (c CartEventType) IsValid() bool {
	for _, candidate := range validCartEventTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartEventType converts raw input into a CartEventType.
func ParseCartEventType(value string) (CartEventType, error) {
	for _, candidate := range validCartEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart event type %q", value)
}
