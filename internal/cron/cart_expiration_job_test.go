package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/cartengine/internal/cart"
	"github.com/angelmondragon/cartengine/internal/catalog"
	"github.com/angelmondragon/cartengine/internal/discount"
	"github.com/angelmondragon/cartengine/internal/events"
	"github.com/angelmondragon/cartengine/internal/inventory"
	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/angelmondragon/cartengine/pkg/logger"
	"github.com/angelmondragon/cartengine/pkg/metrics"
	"github.com/angelmondragon/cartengine/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturedEvents) Publish(_ context.Context, event events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) expired() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []events.Event
	for _, evt := range c.events {
		if evt.Type == enums.CartEventCartExpired {
			out = append(out, evt)
		}
	}
	return out
}

type sweepFixture struct {
	repo    *cart.MemoryRepository
	service cart.Service
	events  *capturedEvents
	start   time.Time
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	repo := cart.NewMemoryRepository()
	products := catalog.NewMemoryCatalog(models.Product{
		ID:            7,
		Name:          "Lamp",
		Price:         decimal.RequireFromString("12.50"),
		Currency:      enums.CurrencyUSD,
		StockQuantity: 50,
		IsActive:      true,
		Status:        enums.ProductStatusAvailable,
	})
	reconciler, err := inventory.NewReconciler(products)
	if err != nil {
		t.Fatalf("reconciler: %v", err)
	}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	captured := &capturedEvents{}
	svc, err := cart.NewService(cart.ServiceParams{
		Repository: repo,
		Products:   products,
		Discounts:  discount.NewEngine(discount.DefaultDiscounts()...),
		Inventory:  reconciler,
		Events:     captured,
		Clock:      func() time.Time { return start },
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	return &sweepFixture{repo: repo, service: svc, events: captured, start: start}
}

func newTestJob(t *testing.T, carts expiredCartLister, expirer cartExpirer, now time.Time, m *metrics.CronJobMetrics) Job {
	t.Helper()
	job, err := NewCartExpirationJob(CartExpirationJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "cron-test"}),
		Carts:   carts,
		Expirer: expirer,
		Metrics: m,
		Clock:   func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}

func TestCartExpirationJobExpiresOverdueCartsOnce(t *testing.T) {
	fx := newSweepFixture(t)
	ctx := context.Background()
	if _, err := fx.service.AddItem(ctx, "due", cart.AddItemInput{ProductID: 7, Quantity: 2}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := fx.service.AddItem(ctx, "fresh", cart.AddItemInput{ProductID: 7, Quantity: 1}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	fresh, _ := fx.repo.Get(ctx, "fresh")
	later := fx.start.Add(40 * 24 * time.Hour)
	extended := later.Add(24 * time.Hour)
	fresh.ExpiresAt = &extended
	if err := fx.repo.Save(ctx, fresh); err != nil {
		t.Fatalf("save: %v", err)
	}

	reg := prometheus.NewRegistry()
	job := newTestJob(t, fx.repo, fx.service, later, metrics.NewCronJobMetrics(reg))
	if job.Name() != "cart-expiration" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	due, _ := fx.repo.Get(ctx, "due")
	if due.Status != enums.CartStatusExpired {
		t.Fatalf("expected expired status, got %s", due.Status)
	}
	stillFresh, _ := fx.repo.Get(ctx, "fresh")
	if stillFresh.Status != enums.CartStatusActive {
		t.Fatalf("fresh cart should stay active, got %s", stillFresh.Status)
	}

	expired := fx.events.expired()
	if len(expired) != 1 {
		t.Fatalf("expected one cart_expired event, got %d", len(expired))
	}
	payload, ok := expired[0].Data.(events.CartExpired)
	if !ok {
		t.Fatalf("unexpected payload type %T", expired[0].Data)
	}
	if payload.ItemCount != 1 || !payload.TotalAmount.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if got := counterValue(t, reg, "cartengine_cron_job_items_processed_total", "cart-expiration"); got != 1 {
		t.Fatalf("expected one processed cart, got %v", got)
	}

	if err := job.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(fx.events.expired()) != 1 {
		t.Fatalf("second sweep must not emit again")
	}
}

type stubLister struct {
	carts []*models.Cart
	err   error
}

func (s stubLister) ListExpired(context.Context, time.Time) ([]*models.Cart, error) {
	return s.carts, s.err
}

type stubExpirer struct {
	failFor map[string]error
	seen    []string
}

func (s *stubExpirer) Expire(_ context.Context, userID string, _ time.Time) (bool, error) {
	s.seen = append(s.seen, userID)
	if err := s.failFor[userID]; err != nil {
		return false, err
	}
	return true, nil
}

func TestCartExpirationJobContinuesPastFailures(t *testing.T) {
	lister := stubLister{carts: []*models.Cart{{UserID: "a"}, {UserID: "b"}, nil, {UserID: "c"}}}
	expirer := &stubExpirer{failFor: map[string]error{
		"a": errors.New("disk full"),
		"c": errors.New("timeout"),
	}}
	job := newTestJob(t, lister, expirer, time.Now(), nil)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected combined error")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("expected 2 combined errors, got %d", n)
	}
	if len(expirer.seen) != 3 || expirer.seen[1] != "b" {
		t.Fatalf("expected every cart attempted, got %v", expirer.seen)
	}
}

func TestCartExpirationJobListError(t *testing.T) {
	job := newTestJob(t, stubLister{err: errors.New("unavailable")}, &stubExpirer{}, time.Now(), nil)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
}

func TestNewCartExpirationJobValidates(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	if _, err := NewCartExpirationJob(CartExpirationJobParams{Carts: stubLister{}, Expirer: &stubExpirer{}}); err == nil {
		t.Fatal("expected logger error")
	}
	if _, err := NewCartExpirationJob(CartExpirationJobParams{Logger: logg, Expirer: &stubExpirer{}}); err == nil {
		t.Fatal("expected lister error")
	}
	if _, err := NewCartExpirationJob(CartExpirationJobParams{Logger: logg, Carts: stubLister{}}); err == nil {
		t.Fatal("expected expirer error")
	}
}
