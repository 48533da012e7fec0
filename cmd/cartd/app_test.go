package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/cartengine/internal/analytics"
	"github.com/angelmondragon/cartengine/internal/cart"
	"github.com/angelmondragon/cartengine/pkg/config"
	"github.com/angelmondragon/cartengine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev, Port: "0"},
		Cart: config.CartConfig{
			ExpirationDays:  30,
			ShareTTL:        168 * time.Hour,
			SweepInterval:   time.Hour,
			SharePathPrefix: "/api/v1/carts/shared",
			DefaultCurrency: "USD",
			SeedProducts:    12,
		},
	}
}

func TestBuildAppWiresLocalStack(t *testing.T) {
	ctx := context.Background()
	a, err := buildApp(ctx, localConfig(), logger.New(logger.Options{ServiceName: "cartd-test"}))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.close()) }()

	assert.Equal(t, 12, a.catalog.Len())
	products, err := a.catalog.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	sub, err := a.hub.Join("u1")
	require.NoError(t, err)
	defer a.hub.Leave(sub)

	_, err = a.cartService.AddItem(ctx, "u1", cart.AddItemInput{ProductID: products[0].ID, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, a.tracker.Metrics()[analytics.MetricItemsAdded])
	select {
	case note := <-sub.C():
		assert.Equal(t, "cart_u1", note.Group)
	case <-time.After(time.Second):
		t.Fatal("hub did not receive the item_added event")
	}

	resp := httptest.NewRecorder()
	a.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/debug/analytics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAppRunStopsOnCancel(t *testing.T) {
	a, err := buildApp(context.Background(), localConfig(), logger.New(logger.Options{ServiceName: "cartd-test"}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.NoError(t, a.close())
}
