package discount

import (
	"testing"
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func cartWith(subtotal, shipping string) *models.Cart {
	cart := models.NewCart("u1", enums.CurrencyUSD, time.Now(), time.Hour)
	cart.Items = []models.LineItem{{
		ProductID: 1,
		Quantity:  1,
		UnitPrice: d(subtotal),
		Status:    enums.CartItemStatusActive,
	}}
	cart.ShippingAmount = d(shipping)
	return cart
}

func TestCalculateByType(t *testing.T) {
	engine := NewEngine(append(DefaultDiscounts(), models.Discount{
		Code:     "FIVE",
		Type:     enums.DiscountTypeFixedAmount,
		Value:    d("5"),
		IsActive: true,
	}, models.Discount{
		Code:     "BIG",
		Type:     enums.DiscountTypeFixedAmount,
		Value:    d("500"),
		IsActive: true,
	})...)
	cart := cartWith("123.45", "7.99")

	cases := map[string]string{
		"SAVE10":   "12.35",
		"FREESHIP": "7.99",
		"BOGO":     "0",
		"FIVE":     "5",
		"BIG":      "123.45",
	}
	for code, want := range cases {
		got, err := engine.Calculate(cart, code)
		require.NoError(t, err, code)
		assert.True(t, got.Equal(d(want)), "%s: want %s got %s", code, want, got)
	}

	_, err := engine.Calculate(cart, "save10")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLookupRequiresActive(t *testing.T) {
	engine := NewEngine(models.Discount{Code: "OFF", Type: enums.DiscountTypePercentage, Value: d("5"), IsActive: false})
	_, ok := engine.Lookup("OFF")
	assert.False(t, ok)

	_, err := engine.Calculate(cartWith("10", "0"), "OFF")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestApplyAccumulatesAndRecordsUsage(t *testing.T) {
	engine := NewEngine(DefaultDiscounts()...)
	cart := cartWith("100", "10")

	amount, err := engine.Apply(cart, "SAVE10")
	require.NoError(t, err)
	assert.True(t, amount.Equal(d("10")))
	assert.True(t, cart.DiscountAmount.Equal(d("10")))
	assert.Equal(t, []string{"SAVE10"}, cart.AppliedCoupons)

	amount, err = engine.Apply(cart, "FREESHIP")
	require.NoError(t, err)
	assert.True(t, amount.Equal(d("10")))
	assert.True(t, cart.DiscountAmount.Equal(d("20")))
	assert.Equal(t, []string{"SAVE10", "FREESHIP"}, cart.AppliedCoupons)
	assert.True(t, cart.Total().Equal(d("90")))

	save10, ok := engine.Lookup("SAVE10")
	require.True(t, ok)
	assert.Equal(t, 1, save10.UsageCount)
}

func TestApplyClampsAccumulator(t *testing.T) {
	engine := NewEngine(models.Discount{Code: "HUGE", Type: enums.DiscountTypeFixedAmount, Value: d("1000"), IsActive: true})
	cart := cartWith("20", "5")
	cart.DiscountAmount = d("15")

	amount, err := engine.Apply(cart, "HUGE")
	require.NoError(t, err)
	assert.True(t, cart.DiscountAmount.Equal(d("25")), "accumulator should clamp to subtotal + shipping, got %s", cart.DiscountAmount)
	assert.True(t, amount.Equal(d("10")), "returned amount should match the capped growth, got %s", amount)
	assert.True(t, cart.Total().IsZero())
}

func TestApplyEligibility(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	minimum := d("50")
	engine := NewEngine(
		models.Discount{Code: "OLD", Type: enums.DiscountTypePercentage, Value: d("10"), IsActive: true, ExpiresAt: &past},
		models.Discount{Code: "MIN50", Type: enums.DiscountTypePercentage, Value: d("10"), IsActive: true, MinimumAmount: &minimum},
		models.Discount{Code: "ONCE", Type: enums.DiscountTypePercentage, Value: d("10"), IsActive: true, UsageLimit: 1},
	)

	for _, code := range []string{"OLD", "MIN50", "NOPE"} {
		cart := cartWith("20", "0")
		_, err := engine.Apply(cart, code)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "%s: %v", code, err)
		assert.True(t, cart.DiscountAmount.IsZero(), code)
		assert.Empty(t, cart.AppliedCoupons, code)
	}

	_, err := engine.Apply(cartWith("20", "0"), "ONCE")
	require.NoError(t, err)
	_, err = engine.Apply(cartWith("20", "0"), "ONCE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage limit")

	engine.Release("ONCE")
	_, err = engine.Apply(cartWith("20", "0"), "ONCE")
	assert.NoError(t, err)
}

func TestListIsSnapshot(t *testing.T) {
	engine := NewEngine(DefaultDiscounts()...)
	list := engine.List()
	require.Len(t, list, 3)
	assert.Equal(t, "SAVE10", list[0].Code)
	assert.Equal(t, "BOGO", list[2].Code)

	list[0].UsageCount = 999
	again, _ := engine.Lookup("SAVE10")
	assert.Equal(t, 0, again.UsageCount)

	engine.Release("SAVE10")
	again, _ = engine.Lookup("SAVE10")
	assert.Equal(t, 0, again.UsageCount, "release never goes below zero")
}
