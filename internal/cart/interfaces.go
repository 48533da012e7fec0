package cart

import (
	"context"
	"time"

	"github.com/angelmondragon/cartengine/pkg/models"
	"github.com/shopspring/decimal"
)

// Repository defines the persistence surface required by the cart service
// and the expiration sweeper. Implementations store and return copies.
type Repository interface {
	// Get returns (nil, nil) when the user has no cart.
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID string) error
	// GetByShareToken returns (nil, nil) when no cart owns token.
	GetByShareToken(ctx context.Context, token string) (*models.Cart, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Cart, error)
	List(ctx context.Context) ([]*models.Cart, error)
}

type productReader interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
}

type discounter interface {
	Lookup(code string) (*models.Discount, bool)
	Apply(cart *models.Cart, code string) (decimal.Decimal, error)
	Release(code string)
}

type inventoryChecker interface {
	Check(ctx context.Context, cart *models.Cart) (*models.InventoryReport, error)
}
