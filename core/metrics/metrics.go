package metrics

import "time"

// SolveEvent summarizes one solve of a scenario.
type SolveEvent struct {
	PlanID    string
	Scenario  string
	Status    string
	Objective float64
	Duration  time.Duration
	Periods   int
	Sources   int
	Time      time.Time
}

// MetricsSink records solve outcomes for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// GenerationPoint is the dispatched energy of one source in one period.
type GenerationPoint struct {
	PlanID   string
	Scenario string
	Period   int
	Source   string
	Energy   float64
	Time     time.Time
}

// StoragePoint is the storage activity of one period.
type StoragePoint struct {
	PlanID    string
	Scenario  string
	Period    int
	Charge    float64
	Discharge float64
	SOC       float64
	Time      time.Time
}

// DispatchRecorder is implemented by sinks able to record the per-period
// dispatch table of an optimal plan.
type DispatchRecorder interface {
	RecordGeneration(points []GenerationPoint) error
	RecordStorage(points []StoragePoint) error
}

// NopSink implements MetricsSink and DispatchRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error             { return nil }
func (NopSink) RecordGeneration([]GenerationPoint) error { return nil }
func (NopSink) RecordStorage([]StoragePoint) error       { return nil }
