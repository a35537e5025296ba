package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wallthumb/internal/logging"
)

// MetricsHandler returns the Prometheus metrics handler for the default registry.
// Scrape errors are logged and the remaining metrics are still served.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:      logging.Logger(),
			ErrorHandling: promhttp.ContinueOnError,
		}),
	)
}
