package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/cartengine/api/handlers"
	"github.com/angelmondragon/cartengine/api/routes"
	"github.com/angelmondragon/cartengine/internal/analytics"
	"github.com/angelmondragon/cartengine/internal/cart"
	"github.com/angelmondragon/cartengine/internal/catalog"
	"github.com/angelmondragon/cartengine/internal/cron"
	"github.com/angelmondragon/cartengine/internal/discount"
	"github.com/angelmondragon/cartengine/internal/events"
	"github.com/angelmondragon/cartengine/internal/inventory"
	"github.com/angelmondragon/cartengine/internal/realtime"
	"github.com/angelmondragon/cartengine/pkg/config"
	"github.com/angelmondragon/cartengine/pkg/logger"
	"github.com/angelmondragon/cartengine/pkg/metrics"
	"github.com/angelmondragon/cartengine/pkg/pubsub"
	"github.com/angelmondragon/cartengine/pkg/redis"
)

const (
	sweeperLockName = "cart-sweeper"
	shutdownTimeout = 15 * time.Second
)

// app is the fully wired cart engine process.
type app struct {
	cfg  *config.Config
	logg *logger.Logger

	metricsRegistry *prometheus.Registry
	bus             *events.Bus
	catalog         *catalog.MemoryCatalog
	discounts       *discount.Engine
	carts           *cart.MemoryRepository
	cartService     cart.Service
	tracker         *analytics.Tracker
	hub             *realtime.Hub
	cron            *cron.Service
	handler         http.Handler

	closers []func() error
}

func buildApp(ctx context.Context, cfg *config.Config, logg *logger.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logg: logg}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.close())
			a = nil
		}
	}()

	a.metricsRegistry = prometheus.NewRegistry()
	a.metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartEventMetrics(a.metricsRegistry)
	cronMetrics := metrics.NewCronJobMetrics(a.metricsRegistry)

	deps := map[string]handlers.Pinger{}
	trackerParams := analytics.TrackerParams{Logger: logg, Metrics: cartMetrics}
	var lock cron.Lock = cron.NewLocalLock()

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		a.closers = append(a.closers, redisClient.Close)
		deps["redis"] = redisClient
		trackerParams.Counters = redisClient
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(sweeperLockName), 2*cfg.Cart.SweepInterval)
		if err != nil {
			return nil, fmt.Errorf("create sweeper lock: %w", err)
		}
		lock = redisLock
	}

	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap pubsub: %w", err)
		}
		a.closers = append(a.closers, psClient.Close)
		deps["pubsub"] = psClient
		publisher := psClient.AnalyticsPublisher()
		forwarder, err := analytics.NewPubSubForwarder(publisher)
		if err != nil {
			return nil, fmt.Errorf("create analytics forwarder: %w", err)
		}
		a.closers = append(a.closers, func() error { publisher.Stop(); return nil })
		trackerParams.Forwarder = forwarder
	}

	currency := cfg.Cart.Currency()
	a.catalog = catalog.NewMemoryCatalog(catalog.GenerateProducts(cfg.Cart.SeedProducts, nil, time.Now().UTC(), currency)...)
	a.discounts = discount.NewEngine(discount.DefaultDiscounts()...)
	reconciler, err := inventory.NewReconciler(a.catalog)
	if err != nil {
		return nil, err
	}

	a.bus = events.NewBus(logg)
	a.tracker = analytics.NewTracker(trackerParams)
	if err := a.tracker.Subscribe(a.bus); err != nil {
		return nil, err
	}
	a.hub = realtime.NewHub(realtime.HubParams{Logger: logg, Metrics: cartMetrics})
	if err := a.hub.Subscribe(a.bus); err != nil {
		return nil, err
	}

	a.carts = cart.NewMemoryRepository()
	a.cartService, err = cart.NewService(cart.ServiceParams{
		Repository:      a.carts,
		Products:        a.catalog,
		Discounts:       a.discounts,
		Inventory:       reconciler,
		Events:          a.bus,
		Logger:          logg,
		Currency:        currency,
		Expiration:      cfg.Cart.ExpirationWindow(),
		ShareTTL:        cfg.Cart.ShareTTL,
		SharePathPrefix: cfg.Cart.SharePathPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("create cart service: %w", err)
	}

	sweep, err := cron.NewCartExpirationJob(cron.CartExpirationJobParams{
		Logger:  logg,
		Carts:   a.carts,
		Expirer: a.cartService,
		Metrics: cronMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create expiration job: %w", err)
	}
	a.cron, err = cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweep),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cart.SweepInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("create cron service: %w", err)
	}

	a.handler = routes.NewRouter(routes.RouterParams{
		Config:       cfg,
		Logger:       logg,
		Gatherer:     a.metricsRegistry,
		Dependencies: deps,
		Analytics:    a.tracker,
	})
	return a, nil
}

// run serves the ops surface and the sweeper until ctx is canceled, then
// drains both.
func (a *app) run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a.logg.Info(a.logg.WithField(groupCtx, "addr", addr), "ops server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		a.logg.Info(a.logg.WithField(groupCtx, "interval", a.cron.Interval().String()), "cart sweeper started")
		if err := a.cron.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// close releases external clients in reverse order of creation.
func (a *app) close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, a.closers[i]())
	}
	a.closers = nil
	return errs
}
