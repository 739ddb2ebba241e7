package metrics

import (
	"time"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/apperror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stage labels
const (
	StageResolve = "resolve"
	StageConvert = "convert"
)

// Check outcome labels
const (
	OutcomeAbove  = "above"
	OutcomeBelow  = "below"
	OutcomeFailed = "failed"
)

// CheckMetrics holds the collectors for threshold checks. A nil *CheckMetrics is valid
// and records nothing.
type CheckMetrics struct {
	// Checks by country and outcome
	ChecksTotal *prometheus.CounterVec

	// Stage failures by error kind
	StageFailuresTotal *prometheus.CounterVec

	StageDuration *prometheus.HistogramVec

	// Last successfully read rate per country/currency
	LastRate *prometheus.GaugeVec
}

// NewCheckMetrics creates the collectors and registers them with reg
func NewCheckMetrics(reg prometheus.Registerer) *CheckMetrics {
	factory := promauto.With(reg)

	return &CheckMetrics{
		ChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecheck_checks_total",
				Help: "Threshold checks performed, by country and outcome",
			},
			[]string{"country_code", "outcome"},
		),

		StageFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecheck_stage_failures_total",
				Help: "Pipeline stage failures by error kind",
			},
			[]string{"stage", "kind"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratecheck_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
			},
			[]string{"stage"},
		),

		LastRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratecheck_last_rate",
				Help: "Most recently retrieved exchange rate",
			},
			[]string{"country_code", "currency"},
		),
	}
}

// ObserveStage records the duration of a stage and, if err is set, a failure
func (m *CheckMetrics) ObserveStage(stage string, began time.Time, err error) {
	if m == nil {
		return
	}

	m.StageDuration.WithLabelValues(stage).Observe(time.Since(began).Seconds())
	if err != nil {
		kind, ok := apperror.KindOf(err)
		if !ok {
			kind = "unknown"
		}
		m.StageFailuresTotal.WithLabelValues(stage, string(kind)).Inc()
	}
}

// RecordCheck records the outcome of one check
func (m *CheckMetrics) RecordCheck(countryCode, currency string, rate float64, exceeded bool, err error) {
	if m == nil {
		return
	}

	switch {
	case err != nil:
		m.ChecksTotal.WithLabelValues(countryCode, OutcomeFailed).Inc()
	case exceeded:
		m.ChecksTotal.WithLabelValues(countryCode, OutcomeAbove).Inc()
		m.LastRate.WithLabelValues(countryCode, currency).Set(rate)
	default:
		m.ChecksTotal.WithLabelValues(countryCode, OutcomeBelow).Inc()
		m.LastRate.WithLabelValues(countryCode, currency).Set(rate)
	}
}
