package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/gridplan/core/logger"
	"github.com/kilianp07/gridplan/core/metrics"
	"github.com/kilianp07/gridplan/core/model"
	"github.com/kilianp07/gridplan/core/solver"
)

// Planner runs the synchronous build -> solve -> extract pipeline. Each call
// to Plan owns its scenario/model/result triple, so independent scenarios may
// be planned concurrently by the caller.
type Planner struct {
	solver solver.Solver
	sink   metrics.MetricsSink
	log    logger.Logger
}

// NewPlanner wires a planner. A nil sink disables metrics recording.
func NewPlanner(s solver.Solver, sink metrics.MetricsSink, log logger.Logger) *Planner {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Planner{solver: s, sink: sink, log: log}
}

// Plan builds the dispatch model for the scenario, solves it and extracts the
// report. Infeasible and unbounded scenarios come back as results with the
// corresponding status; errors are reserved for invalid scenarios, solver
// unavailability and inconsistent solutions.
func (p *Planner) Plan(ctx context.Context, sc *model.Scenario, opts solver.Options) (*DispatchResult, error) {
	dm, err := BuildModel(sc)
	if err != nil {
		return nil, err
	}
	p.log.Debugw("model built", map[string]any{
		"scenario":    sc.Name,
		"variables":   dm.Model.NumVars(),
		"constraints": dm.Model.NumConstraints(),
	})

	start := time.Now()
	sol, err := p.solver.Solve(ctx, dm.Model, opts)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	res, err := Extract(sc, dm, sol)
	if err != nil {
		return nil, err
	}
	res.PlanID = uuid.NewString()

	p.record(sc, res, elapsed)
	p.log.Infof("plan %s for %q finished %s in %s", res.PlanID, sc.Name, res.Status, elapsed)
	return res, nil
}

func (p *Planner) record(sc *model.Scenario, res *DispatchResult, elapsed time.Duration) {
	now := time.Now()
	ev := metrics.SolveEvent{
		PlanID:    res.PlanID,
		Scenario:  sc.Name,
		Status:    res.Status.String(),
		Objective: res.Objective,
		Duration:  elapsed,
		Periods:   len(sc.Periods),
		Sources:   len(sc.Sources),
		Time:      now,
	}
	if err := p.sink.RecordSolve(ev); err != nil {
		p.log.Errorf("record solve: %v", err)
	}

	rec, ok := p.sink.(metrics.DispatchRecorder)
	if !ok || res.Status != solver.StatusOptimal {
		return
	}
	var gens []metrics.GenerationPoint
	var stor []metrics.StoragePoint
	for _, pd := range res.Periods {
		for _, name := range res.Sources {
			gens = append(gens, metrics.GenerationPoint{
				PlanID:   res.PlanID,
				Scenario: sc.Name,
				Period:   pd.Period,
				Source:   name,
				Energy:   pd.Generation[name],
				Time:     now,
			})
		}
		if res.HasStorage {
			stor = append(stor, metrics.StoragePoint{
				PlanID:    res.PlanID,
				Scenario:  sc.Name,
				Period:    pd.Period,
				Charge:    pd.Charge,
				Discharge: pd.Discharge,
				SOC:       pd.SOC,
				Time:      now,
			})
		}
	}
	if err := rec.RecordGeneration(gens); err != nil {
		p.log.Errorf("record generation: %v", err)
	}
	if len(stor) > 0 {
		if err := rec.RecordStorage(stor); err != nil {
			p.log.Errorf("record storage: %v", err)
		}
	}
}
