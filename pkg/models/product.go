package models

import (
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The cart engine only reads it.
type Product struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	Currency      enums.Currency      `json:"currency"`
	StockQuantity int                 `json:"stock_quantity"`
	Category      string              `json:"category"`
	ImageURL      string              `json:"image_url,omitempty"`
	Tags          []string            `json:"tags"`
	IsActive      bool                `json:"is_active"`
	Status        enums.ProductStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Purchasable reports whether requested units can be fulfilled right now.
func (p Product) Purchasable(requested int) bool {
	return p.Status == enums.ProductStatusAvailable && p.StockQuantity >= requested
}

func (p Product) Clone() Product {
	out := p
	out.Tags = append([]string{}, p.Tags...)
	return out
}
