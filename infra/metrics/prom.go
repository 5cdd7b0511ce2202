package metrics

import (
	coremetrics "github.com/kilianp07/gridplan/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solve outcomes in Prometheus metrics.
type PromSink struct {
	solves    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	objective *prometheus.GaugeVec
}

// NewPromSink registers solve metrics on the default Prometheus registerer.
// The Prometheus server is started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gridplan_solves_total",
		Help: "Total number of dispatch solves by status",
	}, []string{"scenario", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridplan_solve_duration_seconds",
		Help:    "Wall time spent in the LP solver",
		Buckets: prometheus.DefBuckets,
	}, []string{"scenario", "status"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gridplan_last_objective",
		Help: "Objective value of the last optimal solve",
	}, []string{"scenario"})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			objective = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{solves: solves, duration: duration, objective: objective}, nil
}

// RecordSolve increments the solve counter and observes the solve duration.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Scenario, ev.Status).Inc()
	s.duration.WithLabelValues(ev.Scenario, ev.Status).Observe(ev.Duration.Seconds())
	if ev.Status == "OPTIMAL" {
		s.objective.WithLabelValues(ev.Scenario).Set(ev.Objective)
	}
	return nil
}
