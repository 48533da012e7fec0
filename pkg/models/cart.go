package models

import (
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/shopspring/decimal"
)

// Cart is the per-user shopping cart aggregate.
type Cart struct {
	UserID         string           `json:"user_id"`
	Items          []LineItem       `json:"items"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	ShippingAmount decimal.Decimal  `json:"shipping_amount"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	Currency       enums.Currency   `json:"currency"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	Status         enums.CartStatus `json:"status"`
	AppliedCoupons []string         `json:"applied_coupons"`
	ShareToken     *string          `json:"share_token,omitempty"`
	ShareExpiresAt *time.Time       `json:"share_expires_at,omitempty"`
}

// NewCart returns an empty active cart for userID.
func NewCart(userID string, currency enums.Currency, now time.Time, ttl time.Duration) *Cart {
	expires := now.Add(ttl)
	return &Cart{
		UserID:         userID,
		Items:          []LineItem{},
		TaxAmount:      decimal.Zero,
		ShippingAmount: decimal.Zero,
		DiscountAmount: decimal.Zero,
		Currency:       currency,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      &expires,
		Status:         enums.CartStatusActive,
		AppliedCoupons: []string{},
	}
}

// Subtotal sums the line totals of active items only.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		if item.IsActive() {
			total = total.Add(item.LineTotal())
		}
	}
	return total
}

// DiscountCeiling is the largest discount the cart can absorb.
func (c *Cart) DiscountCeiling() decimal.Decimal {
	return c.Subtotal().Add(c.ShippingAmount)
}

// EffectiveDiscount clamps the stored discount to [0, subtotal + shipping].
func (c *Cart) EffectiveDiscount() decimal.Decimal {
	ceiling := c.DiscountCeiling()
	discount := c.DiscountAmount
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(ceiling) {
		return ceiling
	}
	return discount
}

// Total is subtotal + tax + shipping - effective discount, never negative.
func (c *Cart) Total() decimal.Decimal {
	total := c.Subtotal().Add(c.TaxAmount).Add(c.ShippingAmount).Sub(c.EffectiveDiscount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ItemCount sums the quantities of active items.
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		if item.IsActive() {
			count += item.Quantity
		}
	}
	return count
}

func (c *Cart) HasCoupon(code string) bool {
	for _, applied := range c.AppliedCoupons {
		if applied == code {
			return true
		}
	}
	return false
}

// FindItem returns the index of the line for productID, or -1.
func (c *Cart) FindItem(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// ClearShare drops the share token and window. A token only exists while the
// cart is shared.
func (c *Cart) ClearShare() {
	c.ShareToken = nil
	c.ShareExpiresAt = nil
}

// IsExpired reports whether the cart's expiry lies strictly before now.
func (c *Cart) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// Clone returns a deep copy that shares no mutable state with c.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		out.Items[i] = item.clone()
	}
	out.AppliedCoupons = append([]string{}, c.AppliedCoupons...)
	out.ExpiresAt = cloneTime(c.ExpiresAt)
	out.ShareExpiresAt = cloneTime(c.ShareExpiresAt)
	if c.ShareToken != nil {
		token := *c.ShareToken
		out.ShareToken = &token
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
