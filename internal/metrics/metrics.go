package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the webhook reconciliation path
var (
	WebhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Total number of bank-transfer webhook requests by response code",
		},
		[]string{"code"},
	)

	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_transactions_total",
			Help: "Total number of bank transactions processed by outcome",
		},
		[]string{"status"},
	)

	ProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_processing_duration_seconds",
			Help:    "Duration of reconciling a single bank transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_total",
			Help: "Total number of fulfillment attempts by product type and result",
		},
		[]string{"product_type", "result"},
	)

	NotificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of notification batches that could not be stored",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)
)

// Register registers all Prometheus metrics with the default registry
func Register() {
	prometheus.MustRegister(WebhookRequestsTotal)
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(ProcessingDuration)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(NotificationFailuresTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
}
