package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cartengine/api/handlers"
	"github.com/angelmondragon/cartengine/api/middleware"
	"github.com/angelmondragon/cartengine/api/responses"
	"github.com/angelmondragon/cartengine/pkg/config"
	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/logger"
)

type analyticsSnapshotter interface {
	Metrics() map[string]int
}

// RouterParams carry everything the ops router serves.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	Gatherer     prometheus.Gatherer
	Dependencies map[string]handlers.Pinger
	Analytics    analyticsSnapshotter
}

// NewRouter builds the operational HTTP surface: health, readiness,
// Prometheus metrics and the analytics snapshot.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, "/healthz", "/metrics"),
	)

	r.Get("/healthz", handlers.Healthz(cfg, logg))
	r.Get("/readyz", handlers.Readyz(cfg, logg, params.Dependencies))

	gatherer := params.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if params.Analytics != nil {
		r.Get("/debug/analytics", handlers.CartAnalytics(params.Analytics))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(req.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	return r
}
