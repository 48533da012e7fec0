package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/angelmondragon/cartengine/api/responses"
	"github.com/angelmondragon/cartengine/pkg/config"
	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/logger"
)

const (
	envHeader    = "X-Cartengine-Env"
	readyTimeout = 3 * time.Second
)

// Pinger is implemented by optional backing services (Redis, Pub/Sub).
type Pinger interface {
	Ping(ctx context.Context) error
}

func Healthz(cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"env":  cfg.App.Env,
				"path": r.URL.Path,
			})
			logg.Debug(ctx, "health.check")
		}

		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// Readyz pings every configured dependency and reports per-dependency status.
func Readyz(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		sort.Strings(names)

		status := map[string]string{}
		failed := []string{}
		for _, name := range names {
			if err := deps[name].Ping(ctx); err != nil {
				status[name] = "down"
				failed = append(failed, name)
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			status[name] = "up"
		}

		if len(failed) > 0 {
			responses.WriteError(r.Context(), nil, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
					WithDetails(map[string]any{"dependencies": status}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": status})
	}
}
