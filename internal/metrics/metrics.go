package metrics

import (
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/drinks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drinkcounter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drinkcounter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	drinksLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drinkcounter_drinks_logged_total",
			Help: "Drink entries recorded, by drink type",
		},
		[]string{"drink_type"},
	)

	alcoholGrams = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drinkcounter_alcohol_grams_total",
			Help: "Grams of ethanol across all recorded drinks",
		},
	)

	sessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drinkcounter_sessions_created_total",
			Help: "Drink sessions created",
		},
	)
)

func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RecordDrink(t drinks.Type, grams float64) {
	drinksLogged.WithLabelValues(string(t)).Inc()
	alcoholGrams.Add(grams)
}

func RecordSessionCreated() {
	sessionsCreated.Inc()
}
