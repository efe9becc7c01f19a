package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline holds the Prometheus collectors for the evaluation pipeline.
type Pipeline struct {
	eventsTotal       prometheus.Counter
	ruleExecutions    *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	alertsTotal       *prometheus.CounterVec
}

// NewPipeline registers the pipeline collectors with the default registry.
func NewPipeline() *Pipeline {
	return &Pipeline{
		eventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "procmon_events_total",
			Help: "Total number of events evaluated by the pipeline",
		}),
		ruleExecutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "procmon_rule_executions_total",
			Help: "Rule executions by rule and outcome",
		}, []string{"rule_id", "outcome"}),
		executionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "procmon_rule_execution_duration_seconds",
			Help:    "Rule execution duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"rule_id"}),
		alertsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "procmon_alerts_total",
			Help: "Alerts generated by level and category",
		}, []string{"level", "category"}),
	}
}

func (p *Pipeline) ObserveEvent() {
	p.eventsTotal.Inc()
}

func (p *Pipeline) ObserveRuleExecution(ruleID string, seconds float64, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	p.ruleExecutions.WithLabelValues(ruleID, outcome).Inc()
	p.executionDuration.WithLabelValues(ruleID).Observe(seconds)
}

func (p *Pipeline) ObserveAlert(level, category string) {
	p.alertsTotal.WithLabelValues(level, category).Inc()
}
