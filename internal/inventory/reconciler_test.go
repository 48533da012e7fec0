package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/models"
	"github.com/shopspring/decimal"
)

type fakeProducts struct {
	products map[int64]models.Product
	err      error
}

func (f *fakeProducts) Get(ctx context.Context, id int64) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func newCart(items ...models.LineItem) *models.Cart {
	cart := models.NewCart("u1", enums.CurrencyUSD, time.Now(), time.Hour)
	cart.Items = items
	return cart
}

func item(id int64, name string, qty int, status enums.CartItemStatus) models.LineItem {
	return models.LineItem{ProductID: id, ProductName: name, Quantity: qty, UnitPrice: decimal.NewFromInt(1), Status: status}
}

func TestCheckReportsInsufficientStock(t *testing.T) {
	products := &fakeProducts{products: map[int64]models.Product{
		1: {ID: 1, Name: "Widget", StockQuantity: 3, Status: enums.ProductStatusAvailable},
	}}
	reconciler, err := NewReconciler(products)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := reconciler.Check(context.Background(), newCart(item(1, "Widget", 5, enums.CartItemStatusActive)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.AllInStock {
		t.Fatalf("expected AllInStock=false")
	}
	if len(report.Issues) != 1 {
		t.Fatalf("expected one issue, got %v", report.Issues)
	}
	want := "Insufficient stock for Widget. Available: 3, Requested: 5"
	if report.Issues[0] != want {
		t.Fatalf("unexpected issue %q", report.Issues[0])
	}
	if len(report.Items) != 1 || report.Items[0].InStock || report.Items[0].AvailableQuantity != 3 {
		t.Fatalf("unexpected line report %+v", report.Items)
	}
}

func TestCheckUsesCatalogName(t *testing.T) {
	products := &fakeProducts{products: map[int64]models.Product{
		1: {ID: 1, Name: "Widget Pro", StockQuantity: 1, Status: enums.ProductStatusAvailable},
	}}
	reconciler, err := NewReconciler(products)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := reconciler.Check(context.Background(), newCart(item(1, "Widget", 2, enums.CartItemStatusActive)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Items[0].ProductName != "Widget Pro" {
		t.Fatalf("expected catalog name, got %q", report.Items[0].ProductName)
	}
	want := "Insufficient stock for Widget Pro. Available: 1, Requested: 2"
	if len(report.Issues) != 1 || report.Issues[0] != want {
		t.Fatalf("unexpected issues %v", report.Issues)
	}
}

func TestCheckMissingProductAndStatus(t *testing.T) {
	products := &fakeProducts{products: map[int64]models.Product{
		1: {ID: 1, Name: "Widget", StockQuantity: 10, Status: enums.ProductStatusAvailable},
		2: {ID: 2, Name: "Gadget", StockQuantity: 10, Status: enums.ProductStatusDiscontinued},
		4: {ID: 4, Name: "Saved", StockQuantity: 0, Status: enums.ProductStatusOutOfStock},
	}}
	reconciler, _ := NewReconciler(products)

	cart := newCart(
		item(1, "Widget", 2, enums.CartItemStatusActive),
		item(3, "Ghost", 1, enums.CartItemStatusActive),
		item(2, "Gadget", 1, enums.CartItemStatusActive),
		item(4, "Saved", 1, enums.CartItemStatusSavedForLater),
	)
	report, err := reconciler.Check(context.Background(), cart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.AllInStock {
		t.Fatalf("expected AllInStock=false")
	}
	if len(report.Items) != 2 {
		t.Fatalf("expected two line reports (missing product and saved line excluded), got %d", len(report.Items))
	}
	if report.Items[0].ProductID != 1 || !report.Items[0].InStock {
		t.Fatalf("expected widget in stock first, got %+v", report.Items[0])
	}
	if report.Items[1].ProductID != 2 || report.Items[1].InStock || report.Items[1].Status != enums.ProductStatusDiscontinued {
		t.Fatalf("expected discontinued gadget out of stock, got %+v", report.Items[1])
	}
	if len(report.Issues) != 2 || report.Issues[0] != "Product Ghost is no longer available" {
		t.Fatalf("unexpected issues %v", report.Issues)
	}
}

func TestCheckAllInStock(t *testing.T) {
	products := &fakeProducts{products: map[int64]models.Product{
		1: {ID: 1, Name: "Widget", StockQuantity: 2, Status: enums.ProductStatusAvailable},
	}}
	reconciler, _ := NewReconciler(products)

	report, err := reconciler.Check(context.Background(), newCart(item(1, "Widget", 2, enums.CartItemStatusActive)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.AllInStock || len(report.Issues) != 0 {
		t.Fatalf("expected clean report, got %+v", report)
	}

	empty, err := reconciler.Check(context.Background(), newCart())
	if err != nil || !empty.AllInStock {
		t.Fatalf("empty cart should be in stock, got %+v err=%v", empty, err)
	}
}

func TestCheckCatalogFailureIsDependencyError(t *testing.T) {
	reconciler, _ := NewReconciler(&fakeProducts{err: errors.New("catalog offline")})
	_, err := reconciler.Check(context.Background(), newCart(item(1, "Widget", 1, enums.CartItemStatusActive)))
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewReconcilerRequiresReader(t *testing.T) {
	if _, err := NewReconciler(nil); err == nil {
		t.Fatalf("expected error for nil reader")
	}
}
