package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// extraction outcomes used as label values
const (
	outcomeFound  = "found"
	outcomeAbsent = "absent"
)

// Metrics holds the pipeline's Prometheus collectors
type Metrics struct {
	Events          prometheus.Counter
	Relevant        prometheus.Counter
	Extractions     *prometheus.CounterVec
	ExtractionTime  *prometheus.HistogramVec
	RecordsAppended prometheus.Counter
	StoreErrors     prometheus.Counter
	InFlight        prometheus.Gauge
}

// NewMetrics registers the pipeline collectors on reg
// each registry may only carry one set; pass a fresh registry per pipeline
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounter(prometheus.CounterOpts{
			Name: "mintwatch_events_total",
			Help: "Log notifications received from the subscription",
		}),
		Relevant: f.NewCounter(prometheus.CounterOpts{
			Name: "mintwatch_relevant_total",
			Help: "Notifications that passed the log filter",
		}),
		Extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mintwatch_extractions_total",
			Help: "Completed extractions by outcome",
		}, []string{"variant", "outcome"}),
		ExtractionTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mintwatch_extraction_seconds",
			Help:    "Wall time of one extraction including browser startup",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"variant"}),
		RecordsAppended: f.NewCounter(prometheus.CounterOpts{
			Name: "mintwatch_records_appended_total",
			Help: "Records written to the store",
		}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "mintwatch_store_errors_total",
			Help: "Failed store appends",
		}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "mintwatch_inflight",
			Help: "Extraction tasks currently admitted",
		}),
	}
}
