package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kilianp07/gridplan/config"
	"github.com/kilianp07/gridplan/core/dispatch"
	coremetrics "github.com/kilianp07/gridplan/core/metrics"
	coresolver "github.com/kilianp07/gridplan/core/solver"
	"github.com/kilianp07/gridplan/infra/logger"
	"github.com/kilianp07/gridplan/infra/metrics"
	"github.com/kilianp07/gridplan/infra/solver"
	"github.com/kilianp07/gridplan/pkg/export"
)

// Service wires configuration, sinks, the simplex solver and the planner.
type Service struct {
	Planner *dispatch.Planner
	log     logger.Logger
	opts    coresolver.Options

	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	opts := coresolver.Options{
		Tol:       cfg.Solver.Tolerance,
		TimeLimit: time.Duration(cfg.Solver.TimeLimitSeconds) * time.Second,
	}
	planner := dispatch.NewPlanner(solver.NewSimplex(), sink, logg)
	return &Service{
		Planner:     planner,
		log:         logg,
		opts:        opts,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Solve loads the scenario at path, plans it and writes the report to out in
// the requested format (table, json or csv).
func (s *Service) Solve(ctx context.Context, path, format string, out io.Writer) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	sc, err := config.LoadScenario(path)
	if err != nil {
		return err
	}
	res, err := s.Planner.Plan(ctx, sc, s.opts)
	if err != nil {
		return err
	}

	switch format {
	case "", "table":
		return export.WriteTable(out, res)
	case "json":
		return export.WriteJSON(out, res)
	case "csv":
		return export.WriteCSV(out, res)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
