package inventory

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/models"
)

type productReader interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
}

// Reconciler compares cart lines with live catalog stock.
type Reconciler struct {
	products productReader
}

// NewReconciler builds a reconciler over the provided catalog.
func NewReconciler(products productReader) (*Reconciler, error) {
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &Reconciler{products: products}, nil
}

// Check reports per-line availability for the active items of cart, in
// cart order. Saved and removed lines are ignored.
func (r *Reconciler) Check(ctx context.Context, cart *models.Cart) (*models.InventoryReport, error) {
	report := &models.InventoryReport{
		AllInStock: true,
		Items:      []models.InventoryLineReport{},
		Issues:     []string{},
	}
	if cart == nil {
		return report, nil
	}

	for _, item := range cart.Items {
		if !item.IsActive() {
			continue
		}
		product, err := r.products.Get(ctx, item.ProductID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				report.AllInStock = false
				report.Issues = append(report.Issues, fmt.Sprintf("Product %s is no longer available", item.ProductName))
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product for inventory check")
		}
		if product == nil {
			report.AllInStock = false
			report.Issues = append(report.Issues, fmt.Sprintf("Product %s is no longer available", item.ProductName))
			continue
		}

		name := product.Name
		if name == "" {
			name = item.ProductName
		}
		inStock := product.Purchasable(item.Quantity)
		report.Items = append(report.Items, models.InventoryLineReport{
			ProductID:         item.ProductID,
			ProductName:       name,
			RequestedQuantity: item.Quantity,
			AvailableQuantity: product.StockQuantity,
			InStock:           inStock,
			Status:            product.Status,
		})
		if !inStock {
			report.AllInStock = false
			report.Issues = append(report.Issues, fmt.Sprintf(
				"Insufficient stock for %s. Available: %d, Requested: %d",
				name, product.StockQuantity, item.Quantity,
			))
		}
	}
	return report, nil
}
