package httphandler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	productQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecocatalog_product_queries_total",
		Help: "The total number of answered product queries by sort key",
	}, []string{"sort"})
	acceptedProducts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecocatalog_accepted_products_total",
		Help: "The total number of products accepted for publishing",
	})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ecocatalog_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
)

func RegisterMetrics(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
}
