// Package metrics exposes Prometheus collectors for the import service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	importsTotal               *prometheus.CounterVec
	importDurationSeconds      prometheus.Histogram
	fetchedBytesTotal          *prometheus.CounterVec
	sectionsDetectedTotal      *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		importsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteimport_imports_total",
				Help: "Total number of import operations, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		importDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "siteimport_import_duration_seconds",
				Help:    "Histogram of end-to-end import latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
		)

		fetchedBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteimport_fetched_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		sectionsDetectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteimport_sections_detected_total",
				Help: "Total number of sections detected in imported pages, labeled by section.",
			},
			[]string{"section"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveImport records the outcome and duration of one import operation.
func ObserveImport(outcome string, duration time.Duration) {
	importsTotal.WithLabelValues(outcome).Inc()
	importDurationSeconds.Observe(duration.Seconds())
}

// AddFetchedBytes adds the downloaded page size for a site.
func AddFetchedBytes(site string, bytesFetched int) {
	if bytesFetched <= 0 {
		return
	}
	fetchedBytesTotal.WithLabelValues(SanitizeSite(site)).Add(float64(bytesFetched))
}

// ObserveSection increments the detection counter for a section.
func ObserveSection(section string) {
	sectionsDetectedTotal.WithLabelValues(section).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
