package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "provider"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		},
		[]string{"endpoint", "status"},
	)

	quoteOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Availability and quote evaluations by outcome.",
		},
		[]string{"outcome"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings committed.",
		},
	)

	webhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook delivery attempts by result.",
		},
		[]string{"result"},
	)

	domainEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Domain events published in process.",
		},
		[]string{"type"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, quoteOutcomes, bookingsCreated, webhookDeliveries, domainEvents)
	})
}

// IncHTTP counts a finished request for its route pattern and status code.
func IncHTTP(endpoint string, status int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// IncQuote records an engine outcome: ok, not_found, invalid, conflict or error.
func IncQuote(outcome string) {
	quoteOutcomes.WithLabelValues(outcome).Inc()
}

func IncBookings() {
	bookingsCreated.Inc()
}

// IncWebhook records a delivery result: delivered, retry, failed or skipped.
func IncWebhook(result string) {
	webhookDeliveries.WithLabelValues(result).Inc()
}

func IncEvent(eventType string) {
	domainEvents.WithLabelValues(eventType).Inc()
}
