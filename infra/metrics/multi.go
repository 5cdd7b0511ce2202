package metrics

import coremetrics "github.com/kilianp07/gridplan/core/metrics"

// MultiSink fans solve records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSolve(ev coremetrics.SolveEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordGeneration forwards generation points to sinks that support them.
func (m *MultiSink) RecordGeneration(points []coremetrics.GenerationPoint) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.DispatchRecorder); ok {
			if err := rec.RecordGeneration(points); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordStorage forwards storage points to sinks that support them.
func (m *MultiSink) RecordStorage(points []coremetrics.StoragePoint) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.DispatchRecorder); ok {
			if err := rec.RecordStorage(points); err != nil {
				return err
			}
		}
	}
	return nil
}
