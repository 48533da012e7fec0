package models

import (
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/shopspring/decimal"
)

// LineItem is one product line inside a cart. UnitPrice is locked at the
// moment the product was first added.
type LineItem struct {
	ProductID   int64                `json:"product_id"`
	ProductName string               `json:"product_name"`
	Quantity    int                  `json:"quantity"`
	UnitPrice   decimal.Decimal      `json:"unit_price"`
	Currency    enums.Currency       `json:"currency"`
	Status      enums.CartItemStatus `json:"status"`
	AddedAt     time.Time            `json:"added_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Note        *string              `json:"note,omitempty"`
}

// LineTotal returns quantity * unit price.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// IsActive reports whether the line counts toward the subtotal.
func (l LineItem) IsActive() bool {
	return l.Status == enums.CartItemStatusActive
}

func (l LineItem) clone() LineItem {
	out := l
	if l.Note != nil {
		note := *l.Note
		out.Note = &note
	}
	return out
}
