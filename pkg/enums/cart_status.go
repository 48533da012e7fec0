package enums

import "fmt"

// CartStatus tracks where a cart aggregate sits in its lifecycle.
type CartStatus string

const (
	CartStatusActive     CartStatus = "active"
	CartStatusShared     CartStatus = "shared"
	CartStatusExpired    CartStatus = "expired"
	CartStatusCheckedOut CartStatus = "checked_out"
)

var validCartStatuses = []CartStatus{
	CartStatusActive,
	CartStatusShared,
	CartStatusExpired,
	CartStatusCheckedOut,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the sweeper should leave the cart alone.
func (c CartStatus) IsTerminal() bool {
	return c == CartStatusExpired || c == CartStatusCheckedOut
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
