package models

import (
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/shopspring/decimal"
)

// Discount is a coupon definition. UsageLimit of zero means unlimited.
type Discount struct {
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	Type          enums.DiscountType `json:"type"`
	Value         decimal.Decimal    `json:"value"`
	MinimumAmount *decimal.Decimal   `json:"minimum_amount,omitempty"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	IsActive      bool               `json:"is_active"`
	UsageLimit    int                `json:"usage_limit"`
	UsageCount    int                `json:"usage_count"`
}

// Exhausted reports whether the usage limit has been reached.
func (d Discount) Exhausted() bool {
	return d.UsageLimit > 0 && d.UsageCount >= d.UsageLimit
}

// Expired reports whether the discount has expired as of now.
func (d Discount) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && !now.Before(*d.ExpiresAt)
}

func (d Discount) Clone() Discount {
	out := d
	if d.MinimumAmount != nil {
		min := *d.MinimumAmount
		out.MinimumAmount = &min
	}
	out.ExpiresAt = cloneTime(d.ExpiresAt)
	return out
}
