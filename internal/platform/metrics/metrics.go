//nolint:gochecknoglobals
package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InvitationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petvetlink",
		Name:      "invitations_created_total",
		Help:      "The total number of invitations created",
	})

	InvitationsResponded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "petvetlink",
		Name:      "invitations_responded_total",
		Help:      "The total number of invitation responses by outcome",
	}, []string{"status"})

	RelationsMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petvetlink",
		Name:      "relations_materialized_total",
		Help:      "The total number of pet-user relations created on accept",
	})

	RelationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "petvetlink",
		Name:      "relation_materialize_failures_total",
		Help:      "Per-pet relation failures during invitation accept",
	})

	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "petvetlink",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "code"})
)

// Middleware mide latencia por método/código de respuesta.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		httpRequestsDuration.With(prometheus.Labels{
			"method": r.Method,
			"code":   strconv.Itoa(ww.Status()),
		}).Observe(time.Since(start).Seconds())
	})
}

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
