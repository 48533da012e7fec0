package handlers

import (
	"net/http"

	"github.com/angelmondragon/cartengine/api/responses"
)

type metricsSnapshotter interface {
	Metrics() map[string]int
}

// CartAnalytics exposes the in-memory analytics aggregate.
func CartAnalytics(tracker metricsSnapshotter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, tracker.Metrics())
	}
}
