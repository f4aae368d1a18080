// Package metrics exposes Prometheus collectors for receipt processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombor/receipt-manager/internal/extraction"
)

const namespace = "receipt_manager"

// Metrics holds the collectors for one registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	receiptsProcessed  *prometheus.CounterVec
	fieldsExtracted    *prometheus.CounterVec
	ocrDuration        prometheus.Histogram
	extractionDuration prometheus.Histogram
}

// New creates a registry with the receipt collectors plus the Go runtime and
// process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		receiptsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_processed_total",
			Help:      "Receipts processed, by final status.",
		}, []string{"status"}),
		fieldsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_extracted_total",
			Help:      "Fields found by the extraction pipeline, by field.",
		}, []string{"field"}),
		ocrDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_duration_seconds",
			Help:      "Time spent in the OCR provider.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		extractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent extracting fields from OCR text.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.receiptsProcessed,
		m.fieldsExtracted,
		m.ocrDuration,
		m.extractionDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ReceiptProcessed counts a finished processing attempt
func (m *Metrics) ReceiptProcessed(status string) {
	if m == nil {
		return
	}
	m.receiptsProcessed.WithLabelValues(status).Inc()
}

// ObserveOCR records how long the OCR provider took
func (m *Metrics) ObserveOCR(d time.Duration) {
	if m == nil {
		return
	}
	m.ocrDuration.Observe(d.Seconds())
}

// ObserveExtraction records pipeline latency and which fields were found
func (m *Metrics) ObserveExtraction(d time.Duration, result *extraction.Result) {
	if m == nil {
		return
	}
	m.extractionDuration.Observe(d.Seconds())
	if result == nil {
		return
	}

	if result.Date != nil {
		m.fieldsExtracted.WithLabelValues("date").Inc()
	}
	if result.Total != nil {
		m.fieldsExtracted.WithLabelValues("total").Inc()
	}
	if result.Merchant != nil {
		m.fieldsExtracted.WithLabelValues("merchant").Inc()
	}
	if result.Location != nil {
		m.fieldsExtracted.WithLabelValues("location").Inc()
	}
	if result.SuggestedCategory != extraction.Other {
		m.fieldsExtracted.WithLabelValues("category").Inc()
	}
}
