package discount

import (
	"sync"
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Engine owns the coupon catalogue and turns codes into discount amounts.
type Engine struct {
	mu        sync.Mutex
	discounts map[string]*models.Discount
	order     []string
	now       func() time.Time
}

// DefaultDiscounts is the reference coupon catalogue.
func DefaultDiscounts() []models.Discount {
	return []models.Discount{
		{
			Code:       "SAVE10",
			Name:       "10% Off",
			Type:       enums.DiscountTypePercentage,
			Value:      decimal.NewFromInt(10),
			IsActive:   true,
			UsageLimit: 1000,
		},
		{
			Code:       "FREESHIP",
			Name:       "Free Shipping",
			Type:       enums.DiscountTypeFreeShipping,
			Value:      decimal.Zero,
			IsActive:   true,
			UsageLimit: 500,
		},
		{
			Code:       "BOGO",
			Name:       "Buy One Get One",
			Type:       enums.DiscountTypeBuyOneGetOne,
			Value:      decimal.NewFromInt(50),
			IsActive:   true,
			UsageLimit: 100,
		},
	}
}

// NewEngine builds an engine over discounts. A later entry with the same
// code replaces an earlier one.
func NewEngine(discounts ...models.Discount) *Engine {
	e := &Engine{
		discounts: make(map[string]*models.Discount, len(discounts)),
		now:       time.Now,
	}
	for _, d := range discounts {
		clone := d.Clone()
		if _, exists := e.discounts[d.Code]; !exists {
			e.order = append(e.order, d.Code)
		}
		e.discounts[d.Code] = &clone
	}
	return e
}

// Lookup returns a copy of the active discount for code. Matching is case-exact.
func (e *Engine) Lookup(code string) (*models.Discount, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.lookupLocked(code)
	if !ok {
		return nil, false
	}
	clone := d.Clone()
	return &clone, true
}

// Calculate returns the discount code would grant on cart, without touching
// the cart or the usage counter.
func (e *Engine) Calculate(cart *models.Cart, code string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.lookupLocked(code)
	if !ok {
		return decimal.Zero, invalidCode()
	}
	return amountFor(*d, cart), nil
}

// Apply checks eligibility, adds the computed amount to the cart's discount
// accumulator, records the code and consumes one usage slot. The returned
// amount is what the accumulator actually grew by after the ceiling cap.
func (e *Engine) Apply(cart *models.Cart, code string) (decimal.Decimal, error) {
	if cart == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	d, ok := e.lookupLocked(code)
	if !ok {
		return decimal.Zero, invalidCode()
	}
	if err := eligible(*d, cart, e.now()); err != nil {
		return decimal.Zero, err
	}

	previous := cart.DiscountAmount
	accumulated := previous.Add(amountFor(*d, cart))
	if ceiling := cart.DiscountCeiling(); accumulated.GreaterThan(ceiling) {
		accumulated = ceiling
	}
	cart.DiscountAmount = accumulated
	if !cart.HasCoupon(code) {
		cart.AppliedCoupons = append(cart.AppliedCoupons, code)
	}
	d.UsageCount++
	return accumulated.Sub(previous), nil
}

// Release gives back a usage slot consumed by Apply.
func (e *Engine) Release(code string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d, ok := e.discounts[code]; ok && d.UsageCount > 0 {
		d.UsageCount--
	}
}

// List returns a snapshot of every discount in registration order.
func (e *Engine) List() []models.Discount {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Discount, 0, len(e.order))
	for _, code := range e.order {
		out = append(out, e.discounts[code].Clone())
	}
	return out
}

func (e *Engine) lookupLocked(code string) (*models.Discount, bool) {
	d, ok := e.discounts[code]
	if !ok || !d.IsActive {
		return nil, false
	}
	return d, true
}

func amountFor(d models.Discount, cart *models.Cart) decimal.Decimal {
	subtotal := cart.Subtotal()
	switch d.Type {
	case enums.DiscountTypePercentage:
		return subtotal.Mul(d.Value).Div(hundred).Round(2)
	case enums.DiscountTypeFixedAmount:
		return decimal.Min(d.Value, subtotal)
	case enums.DiscountTypeFreeShipping:
		return cart.ShippingAmount
	case enums.DiscountTypeBuyOneGetOne:
		return decimal.Zero
	default:
		return decimal.Zero
	}
}

func eligible(d models.Discount, cart *models.Cart, now time.Time) error {
	if d.Expired(now) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code has expired").
			WithDetails(map[string]any{"code": d.Code})
	}
	if d.MinimumAmount != nil && cart.Subtotal().LessThan(*d.MinimumAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "order minimum not met").
			WithDetails(map[string]any{"code": d.Code, "minimum_amount": d.MinimumAmount.StringFixed(2)})
	}
	if d.Exhausted() {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached").
			WithDetails(map[string]any{"code": d.Code})
	}
	return nil
}

func invalidCode() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid coupon code")
}
