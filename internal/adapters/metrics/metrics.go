package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "workouts"

// Query operation labels.
const (
	OpExec     = "exec"
	OpQuery    = "query"
	OpQueryRow = "query_row"
)

var (
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency grouped by method, route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	slowRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "slow_requests_total",
		Help:      "Number of requests slower than the configured threshold.",
	}, []string{"route"})

	queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Database call latency grouped by operation.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"op"})

	slowQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "slow_queries_total",
		Help:      "Number of database calls slower than the configured threshold.",
	}, []string{"op"})

	workoutEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workout",
		Name:      "events_total",
		Help:      "Workout lifecycle events grouped by event name.",
	}, []string{"event"})

	authEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "events_total",
		Help:      "Authentication events grouped by event name.",
	}, []string{"event"})
)

func init() {
	prometheus.MustRegister(requestDuration, slowRequests, queryDuration, slowQueries, workoutEvents, authEvents)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one served request.
func ObserveRequest(method, route string, status int, d time.Duration, slow bool) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
	if slow {
		slowRequests.WithLabelValues(route).Inc()
	}
}

// ObserveQuery records one database call.
func ObserveQuery(op string, d time.Duration, slow bool) {
	queryDuration.WithLabelValues(op).Observe(d.Seconds())
	if slow {
		slowQueries.WithLabelValues(op).Inc()
	}
}

// RecordWorkoutEvent counts a workout lifecycle event such as "created" or "soft_deleted".
func RecordWorkoutEvent(event string) {
	workoutEvents.WithLabelValues(event).Inc()
}

// RecordAuthEvent counts an authentication event such as "login" or "login_failed".
func RecordAuthEvent(event string) {
	authEvents.WithLabelValues(event).Inc()
}

// Route collapses a request path into a low-cardinality label.
// Prefers the ServeMux pattern; otherwise id segments are replaced with {id}.
func Route(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	segments := strings.Split(r.URL.Path, "/")
	for i, seg := range segments {
		if _, err := uuid.Parse(seg); err == nil {
			segments[i] = "{id}"
			continue
		}
		if _, err := strconv.Atoi(seg); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}
