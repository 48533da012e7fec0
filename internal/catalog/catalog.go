package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/models"
)

// MemoryCatalog is the in-process product catalog used by the engine.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[int64]models.Product
	now      func() time.Time
}

// NewMemoryCatalog seeds a catalog with the provided products.
func NewMemoryCatalog(products ...models.Product) *MemoryCatalog {
	c := &MemoryCatalog{
		products: make(map[int64]models.Product, len(products)),
		now:      time.Now,
	}
	for _, p := range products {
		c.products[p.ID] = p.Clone()
	}
	return c
}

// Get returns the product or a CodeNotFound error.
func (c *MemoryCatalog) Get(ctx context.Context, id int64) (*models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found", id)
	}
	out := p.Clone()
	return &out, nil
}

// List returns active products ordered by id.
func (c *MemoryCatalog) List(ctx context.Context) ([]models.Product, error) {
	return c.filter(func(p models.Product) bool { return p.IsActive }), nil
}

// Search matches active products whose name or description contains query,
// ignoring case.
func (c *MemoryCatalog) Search(ctx context.Context, query string) ([]models.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return c.List(ctx)
	}
	return c.filter(func(p models.Product) bool {
		if !p.IsActive {
			return false
		}
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle)
	}), nil
}

// DecrementStock lowers stock by quantity, flooring at zero. Unknown ids are ignored.
func (c *MemoryCatalog) DecrementStock(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil
	}
	p.StockQuantity -= quantity
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}
	p.UpdatedAt = c.now().UTC()
	c.products[id] = p
	return nil
}

// Upsert inserts or replaces a product.
func (c *MemoryCatalog) Upsert(ctx context.Context, product models.Product) error {
	if product.ID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if !product.Status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid product status %q", product.Status)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = product.Clone()
	return nil
}

// Len returns the number of products, active or not.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *MemoryCatalog) filter(keep func(models.Product) bool) []models.Product {
	c.mu.RLock()
	out := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
