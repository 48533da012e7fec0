package catalog

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/angelmondragon/cartengine/pkg/models"
	"github.com/shopspring/decimal"
)

var seedCategories = []string{"Electronics", "Clothing", "Books", "Home", "Sports", "Beauty"}

// GenerateProducts builds count mock products with ids 1..count. The same
// rng seed always yields the same catalog.
func GenerateProducts(count int, rng *rand.Rand, now time.Time, currency enums.Currency) []models.Product {
	if count <= 0 {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}
	statuses := enums.ProductStatuses()
	products := make([]models.Product, 0, count)
	for i := 1; i <= count; i++ {
		products = append(products, models.Product{
			ID:            int64(i),
			Name:          fmt.Sprintf("Product %d", i),
			Description:   fmt.Sprintf("Description for product %d", i),
			Price:         decimal.NewFromInt(int64(10 + rng.Intn(990))),
			Currency:      currency,
			StockQuantity: rng.Intn(100),
			Category:      seedCategories[rng.Intn(len(seedCategories))],
			ImageURL:      fmt.Sprintf("https://picsum.photos/200/200?random=%d", i),
			Tags:          []string{fmt.Sprintf("tag%d", i), fmt.Sprintf("category%d", i%5)},
			IsActive:      rng.Float64() > 0.1,
			Status:        statuses[rng.Intn(len(statuses))],
			CreatedAt:     now.AddDate(0, 0, -rng.Intn(365)).UTC(),
			UpdatedAt:     now.AddDate(0, 0, -rng.Intn(30)).UTC(),
		})
	}
	return products
}
