package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

const namespace = "urlguard"

// Collector records analysis metrics on a private registry. It implements
// widget.Observer.
type Collector struct {
	registry      *prometheus.Registry
	analyses      *prometheus.CounterVec
	riskFactors   *prometheus.CounterVec
	checkOutcomes *prometheus.CounterVec
	safetyScore   prometheus.Histogram
	inFlight      prometheus.Gauge
	failures      prometheus.Counter
}

// NewCollector creates and registers the collectors. Runtime metrics (Go and
// process) are added when enableRuntimeMetrics is set.
func NewCollector(enableRuntimeMetrics bool) *Collector {
	reg := prometheus.NewRegistry()
	if enableRuntimeMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg.MustRegister(collectors.NewGoCollector())
	}

	c := &Collector{
		registry: reg,
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by verdict.",
		}, []string{"status"}),
		riskFactors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_factors_total",
			Help:      "Detected risk factors by text.",
		}, []string{"factor"}),
		checkOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_outcomes_total",
			Help:      "Final check outcomes by check name.",
		}, []string{"check", "outcome"}),
		safetyScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "safety_score",
			Help:      "Distribution of final safety scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Widget runs currently in progress.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Widget runs that ended without a result.",
		}),
	}
	reg.MustRegister(c.analyses, c.riskFactors, c.checkOutcomes, c.safetyScore, c.inFlight, c.failures)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveResult records a finished analysis.
func (c *Collector) ObserveResult(res *models.AnalysisResult) {
	if res == nil {
		return
	}
	c.analyses.WithLabelValues(string(res.Status)).Inc()
	c.safetyScore.Observe(float64(res.SafetyScore))
	for _, f := range res.RiskFactors {
		c.riskFactors.WithLabelValues(string(f)).Inc()
	}
	for _, chk := range res.Checks {
		outcome := "fail"
		if chk.Passed {
			outcome = "pass"
		}
		c.checkOutcomes.WithLabelValues(chk.Name, outcome).Inc()
	}
}

func (c *Collector) RunStarted() {
	c.inFlight.Inc()
}

func (c *Collector) RunFinished(res *models.AnalysisResult) {
	c.inFlight.Dec()
	if res == nil {
		c.failures.Inc()
		return
	}
	c.ObserveResult(res)
}
