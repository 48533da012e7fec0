package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cartengine/internal/events"
	"github.com/angelmondragon/cartengine/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/logger"
	"github.com/angelmondragon/cartengine/pkg/models"
	"github.com/angelmondragon/cartengine/pkg/validators"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultExpiration      = 30 * 24 * time.Hour
	defaultShareTTL        = 7 * 24 * time.Hour
	defaultSharePathPrefix = "/api/v1/carts/shared"
	maxNoteLength          = 500
)

// Service is the single mutation entry point for cart aggregates.
type Service interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID string, input AddItemInput) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID string, productID int64, input UpdateItemInput) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID string, productID int64) (*models.Cart, error)
	Clear(ctx context.Context, userID string) (*models.Cart, error)
	CheckInventory(ctx context.Context, userID string) (*models.InventoryReport, error)
	ShareCart(ctx context.Context, userID string) (*ShareResult, error)
	ApplyCoupon(ctx context.Context, userID, code string) (*CouponResult, error)
	GetShared(ctx context.Context, token string) (*models.Cart, error)
	SetItemStatus(ctx context.Context, userID string, productID int64, status enums.CartItemStatus) (*models.Cart, error)
	BulkAdd(ctx context.Context, userID string, inputs []AddItemInput) ([]BulkAddResult, error)
	// Expire marks the user's cart expired if it is still due as of now.
	// It reports whether the cart transitioned.
	Expire(ctx context.Context, userID string, now time.Time) (bool, error)
}

// AddItemInput captures a request to put units of a product in the cart.
type AddItemInput struct {
	ProductID int64   `json:"product_id" validate:"gt=0"`
	Quantity  int     `json:"quantity" validate:"min=1,max=100"`
	Note      *string `json:"note,omitempty"`
}

// UpdateItemInput overwrites the quantity of an existing line.
type UpdateItemInput struct {
	Quantity int     `json:"quantity" validate:"min=1,max=100"`
	Note     *string `json:"note,omitempty"`
}

// ShareResult is returned by ShareCart.
type ShareResult struct {
	Token     string    `json:"token"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CouponResult is returned by ApplyCoupon.
type CouponResult struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Cart     *models.Cart    `json:"cart"`
}

// BulkAddResult reports the outcome of one BulkAdd entry.
type BulkAddResult struct {
	ProductID int64  `json:"product_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

// ServiceParams configure the cart service.
type ServiceParams struct {
	Repository      Repository
	Products        productReader
	Discounts       discounter
	Inventory       inventoryChecker
	Events          events.Publisher
	Locks           *UserLocks
	Logger          *logger.Logger
	Currency        enums.Currency
	Expiration      time.Duration
	ShareTTL        time.Duration
	SharePathPrefix string
	Clock           func() time.Time
}

type service struct {
	repo       Repository
	products   productReader
	discounts  discounter
	inventory  inventoryChecker
	events     events.Publisher
	locks      *UserLocks
	logg       *logger.Logger
	currency   enums.Currency
	expiration time.Duration
	shareTTL   time.Duration
	sharePath  string
	now        func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount engine required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory checker required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	locks := params.Locks
	if locks == nil {
		locks = NewUserLocks()
	}
	currency := params.Currency
	if !currency.IsValid() {
		currency = enums.CurrencyUSD
	}
	expiration := params.Expiration
	if expiration <= 0 {
		expiration = defaultExpiration
	}
	shareTTL := params.ShareTTL
	if shareTTL <= 0 {
		shareTTL = defaultShareTTL
	}
	sharePath := strings.TrimRight(strings.TrimSpace(params.SharePathPrefix), "/")
	if sharePath == "" {
		sharePath = defaultSharePathPrefix
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:       params.Repository,
		products:   params.Products,
		discounts:  params.Discounts,
		inventory:  params.Inventory,
		events:     params.Events,
		locks:      locks,
		logg:       params.Logger,
		currency:   currency,
		expiration: expiration,
		shareTTL:   shareTTL,
		sharePath:  sharePath,
		now:        clock,
	}, nil
}

// mutation is what a cart edit hands back to withCart.
type mutation struct {
	changed  bool
	event    *events.Event
	rollback func()
}

func (s *service) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	now := s.now().UTC()
	cart, created, err := s.load(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, userID string, input AddItemInput) (*models.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}

	product, err := s.products.Get(ctx, input.ProductID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found", input.ProductID)
	}

	return s.withCart(ctx, userID, func(cart *models.Cart, now time.Time) (mutation, error) {
		note := normalizeNote(input.Note)
		if idx := cart.FindItem(product.ID); idx >= 0 {
			line := &cart.Items[idx]
			if line.IsActive() {
				line.Quantity += input.Quantity
			} else {
				line.Status = enums.CartItemStatusActive
				line.Quantity = input.Quantity
			}
			if note != nil {
				line.Note = note
			}
			line.UpdatedAt = now
		} else {
			cart.Items = append(cart.Items, models.LineItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    input.Quantity,
				UnitPrice:   product.Price,
				Currency:    product.Currency,
				Status:      enums.CartItemStatusActive,
				AddedAt:     now,
				UpdatedAt:   now,
				Note:        note,
			})
		}
		evt := events.New(enums.CartEventItemAdded, userID, now, events.ItemAdded{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    input.Quantity,
		})
		return mutation{changed: true, event: &evt}, nil
	})
}

func (s *service) UpdateItem(ctx context.Context, userID string, productID int64, input UpdateItemInput) (*models.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	return s.withCart(ctx, userID, func(cart *models.Cart, now time.Time) (mutation, error) {
		idx := cart.FindItem(productID)
		if idx < 0 {
			return mutation{}, itemNotFound(productID)
		}
		line := &cart.Items[idx]
		line.Quantity = input.Quantity
		if note := normalizeNote(input.Note); note != nil {
			line.Note = note
		}
		line.UpdatedAt = now
		evt := events.New(enums.CartEventItemUpdated, userID, now, events.ItemUpdated{
			ProductID: productID,
			Quantity:  input.Quantity,
		})
		return mutation{changed: true, event: &evt}, nil
	})
}

func (s *service) RemoveItem(ctx context.Context, userID string, productID int64) (*models.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	return s.withCart(ctx, userID, func(cart *models.Cart, now time.Time) (mutation, error) {
		idx := cart.FindItem(productID)
		if idx < 0 {
			return mutation{}, nil
		}
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		evt := events.New(enums.CartEventItemRemoved, userID, now, events.ItemRemoved{ProductID: productID})
		return mutation{changed: true, event: &evt}, nil
	})
}

func (s *service) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return s.withCart(ctx, userID, func(cart *models.Cart, now time.Time) (mutation, error) {
		removed := len(cart.Items)
		cart.Items = []models.LineItem{}
		evt := events.New(enums.CartEventCartCleared, userID, now, events.CartCleared{RemovedLines: removed})
		return mutation{changed: true, event: &evt}, nil
	})
}

func (s *service) CheckInventory(ctx context.Context, userID string) (*models.InventoryReport, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.inventory.Check(ctx, cart)
}

func (s *service) ShareCart(ctx context.Context, userID string) (*ShareResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	var result ShareResult
	_, err := s.withCart(ctx, userID, func(cart *models.Cart, now time.Time) (mutation, error) {
		token := uuid.NewString()
		expiresAt := now.Add(s.shareTTL)
		cart.ShareToken = &token
		cart.ShareExpiresAt = &expiresAt
		cart.Status = enums.CartStatusShared
		result = ShareResult{
			Token:     token,
			Path:      s.sharePath + "/" + token,
			ExpiresAt: expiresAt,
		}
		evt := events.New(enums.CartEventCartShared, userID, now, events.CartShared{Token: token, ExpiresAt: expiresAt})
		return mutation{changed: true, event: &evt}, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) ApplyCoupon(ctx context.Context, userID, code string) (*CouponResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if _, ok := s.discounts.Lookup(code); !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code").
			WithDetails(map[string]any{"code": code})
	}

	var amount decimal.Decimal
	cart, err := s.withCart(ctx, userID, func(cart *models.Cart, now time.Time) (mutation, error) {
		if cart.HasCoupon(code) {
			return mutation{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon already applied").
				WithDetails(map[string]any{"code": code})
		}
		applied, err := s.discounts.Apply(cart, code)
		if err != nil {
			return mutation{}, err
		}
		amount = applied
		evt := events.New(enums.CartEventCouponApplied, userID, now, events.CouponApplied{
			Code:     code,
			Discount: applied,
			Total:    cart.Total(),
		})
		return mutation{
			changed:  true,
			event:    &evt,
			rollback: func() { s.discounts.Release(code) },
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &CouponResult{Code: code, Discount: amount, Cart: cart}, nil
}

func (s *service) GetShared(ctx context.Context, token string) (*models.Cart, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "share token is required")
	}
	cart, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shared cart")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shared cart not found")
	}
	if cart.ShareExpiresAt != nil && !s.now().Before(*cart.ShareExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shared cart link has expired")
	}
	return cart, nil
}

func (s *service) SetItemStatus(ctx context.Context, userID string, productID int64, status enums.CartItemStatus) (*models.Cart, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid item status %q", status)
	}
	return s.withCart(ctx, userID, func(cart *models.Cart, now time.Time) (mutation, error) {
		idx := cart.FindItem(productID)
		if idx < 0 {
			return mutation{}, itemNotFound(productID)
		}
		line := &cart.Items[idx]
		if line.Status == status {
			return mutation{}, nil
		}
		line.Status = status
		line.UpdatedAt = now
		evt := events.New(enums.CartEventItemUpdated, userID, now, events.ItemUpdated{
			ProductID: productID,
			Quantity:  line.Quantity,
		})
		return mutation{changed: true, event: &evt}, nil
	})
}

func (s *service) BulkAdd(ctx context.Context, userID string, inputs []AddItemInput) ([]BulkAddResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	results := make([]BulkAddResult, 0, len(inputs))
	for _, input := range inputs {
		result := BulkAddResult{ProductID: input.ProductID, Success: true}
		if _, err := s.AddItem(ctx, userID, input); err != nil {
			result.Success = false
			result.Err = err
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *service) Expire(ctx context.Context, userID string, now time.Time) (bool, error) {
	if err := validateUserID(userID); err != nil {
		return false, err
	}
	unlock := s.locks.Lock(userID)
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		unlock()
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil || cart.Status.IsTerminal() || !cart.IsExpired(now) {
		unlock()
		return false, nil
	}
	cart.Status = enums.CartStatusExpired
	cart.ClearShare()
	cart.UpdatedAt = now
	if err := s.save(ctx, cart); err != nil {
		unlock()
		return false, err
	}
	unlock()

	s.publish(ctx, events.New(enums.CartEventCartExpired, userID, now, events.CartExpired{
		ItemCount:   len(cart.Items),
		TotalAmount: cart.Total(),
	}))
	return true, nil
}

// withCart runs edit on the user's cart under the user lock, persists the
// result and publishes the resulting event after the lock is released.
func (s *service) withCart(ctx context.Context, userID string, edit func(cart *models.Cart, now time.Time) (mutation, error)) (*models.Cart, error) {
	unlock := s.locks.Lock(userID)
	cart, mut, err := s.editLocked(ctx, userID, edit)
	unlock()
	if err != nil {
		return nil, err
	}
	if mut.event != nil {
		s.publish(ctx, *mut.event)
	}
	return cart, nil
}

func (s *service) editLocked(ctx context.Context, userID string, edit func(cart *models.Cart, now time.Time) (mutation, error)) (*models.Cart, mutation, error) {
	now := s.now().UTC()
	cart, created, err := s.load(ctx, userID, now)
	if err != nil {
		return nil, mutation{}, err
	}
	revived := s.revive(cart, now)

	mut, err := edit(cart, now)
	if err != nil {
		return nil, mutation{}, err
	}
	if !mut.changed && !created && !revived {
		return cart, mut, nil
	}
	cart.UpdatedAt = now
	if err := s.save(ctx, cart); err != nil {
		if mut.rollback != nil {
			mut.rollback()
		}
		return nil, mutation{}, err
	}
	return cart, mut, nil
}

func (s *service) load(ctx context.Context, userID string, now time.Time) (*models.Cart, bool, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart != nil {
		return cart, false, nil
	}
	return models.NewCart(userID, s.currency, now, s.expiration), true, nil
}

// revive reopens an expired cart touched by a mutation.
func (s *service) revive(cart *models.Cart, now time.Time) bool {
	if cart.Status != enums.CartStatusExpired {
		return false
	}
	expires := now.Add(s.expiration)
	cart.Status = enums.CartStatusActive
	cart.ExpiresAt = &expires
	cart.ClearShare()
	return true
}

func (s *service) save(ctx context.Context, cart *models.Cart) error {
	if err := s.repo.Save(ctx, cart); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (s *service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil && s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, event.UserID)
		logCtx = s.logg.WithEventType(logCtx, event.Type.String())
		s.logg.Error(logCtx, "cart event delivery failed", err)
	}
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return nil
}

func validateProductID(productID int64) error {
	if productID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	return nil
}

func itemNotFound(productID int64) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "item %d not found in cart", productID).
		WithDetails(map[string]any{"product_id": productID})
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	clean := validators.SanitizeString(*note, maxNoteLength)
	return &clean
}
