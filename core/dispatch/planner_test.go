package dispatch

import (
	"context"
	"math"
	"testing"

	coremetrics "github.com/kilianp07/gridplan/core/metrics"
	"github.com/kilianp07/gridplan/core/model"
	"github.com/kilianp07/gridplan/core/solver"
	infrasolver "github.com/kilianp07/gridplan/infra/solver"
)

// batteryScenario is the 5-period coal/wind horizon where reduced coal
// capacity in the last two periods forces the battery to shift energy.
func batteryScenario() *model.Scenario {
	term := 0.0
	return &model.Scenario{
		Name:    "battery",
		Periods: []int{1, 2, 3, 4, 5},
		Demand:  map[int]float64{1: 90, 2: 100, 3: 80, 4: 110, 5: 95},
		Sources: []model.Source{
			{
				Name:     "coal",
				Cost:     map[int]float64{1: 50, 2: 50, 3: 50, 4: 80, 5: 80},
				Capacity: map[int]float64{1: 70, 2: 70, 3: 70, 4: 50, 5: 50},
			},
			{
				Name:     "wind",
				Cost:     map[int]float64{1: 20, 2: 20, 3: 20, 4: 20, 5: 20},
				Capacity: map[int]float64{1: 40, 2: 50, 3: 30, 4: 45, 5: 35},
			},
		},
		Storage: &model.Storage{
			Capacity:        40,
			ChargeLimit:     20,
			DischargeLimit:  20,
			ChargeEff:       0.95,
			DischargeEff:    0.95,
			DegradationCost: 5.0,
			InitialEnergy:   0,
			TerminalEnergy:  &term,
		},
	}
}

func newTestPlanner(sink coremetrics.MetricsSink) *Planner {
	return NewPlanner(infrasolver.NewSimplex(), sink, nil)
}

func balanceResidual(sc *model.Scenario, pd PeriodDispatch) float64 {
	var produced float64
	for _, g := range pd.Generation {
		produced += g
	}
	return produced + pd.Discharge - sc.Demand[pd.Period] - pd.Charge
}

func TestPlanBatteryScenario(t *testing.T) {
	sc := batteryScenario()
	res, err := newTestPlanner(nil).Plan(context.Background(), sc, solver.Options{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.Status != solver.StatusOptimal {
		t.Fatalf("expected OPTIMAL, got %v", res.Status)
	}
	if res.PlanID == "" {
		t.Fatal("missing plan id")
	}
	if len(res.Periods) != 5 {
		t.Fatalf("expected 5 periods, got %d", len(res.Periods))
	}

	for _, pd := range res.Periods {
		if r := balanceResidual(sc, pd); math.Abs(r) > 1e-6 {
			t.Fatalf("period %d balance residual %g", pd.Period, r)
		}
		if pd.SOC < -1e-6 || pd.SOC > sc.Storage.Capacity+1e-6 {
			t.Fatalf("period %d soc %g out of bounds", pd.Period, pd.SOC)
		}
		if pd.Charge < -1e-6 || pd.Charge > sc.Storage.ChargeLimit+1e-6 {
			t.Fatalf("period %d charge %g out of bounds", pd.Period, pd.Charge)
		}
		if pd.Discharge < -1e-6 || pd.Discharge > sc.Storage.DischargeLimit+1e-6 {
			t.Fatalf("period %d discharge %g out of bounds", pd.Period, pd.Discharge)
		}
	}

	// coal capacity drops below demand in periods 4 and 5, so the battery
	// must have charged earlier and discharge there
	var charged float64
	for _, pd := range res.Periods[:3] {
		charged += pd.Charge
	}
	if charged <= 0 {
		t.Fatal("expected charging in the first three periods")
	}
	if res.Periods[3].Discharge+res.Periods[4].Discharge <= 0 {
		t.Fatal("expected discharge in periods 4 and 5")
	}
	// terminal SOC pinned to zero
	if soc := res.Periods[4].SOC; math.Abs(soc) > 1e-6 {
		t.Fatalf("expected final soc 0, got %g", soc)
	}
	if res.Objective <= 0 {
		t.Fatalf("expected positive objective, got %g", res.Objective)
	}
}

func TestPlanInfeasibleScenario(t *testing.T) {
	sc := batteryScenario()
	sc.Storage = nil
	sc.Sources[0].Capacity[3] = 0
	sc.Sources[1].Capacity[3] = 0

	res, err := newTestPlanner(nil).Plan(context.Background(), sc, solver.Options{})
	if err != nil {
		t.Fatalf("infeasibility must not be an error: %v", err)
	}
	if res.Status != solver.StatusInfeasible {
		t.Fatalf("expected INFEASIBLE, got %v", res.Status)
	}
	if len(res.Periods) != 0 {
		t.Fatal("infeasible result must not carry a dispatch table")
	}
}

func TestPlanDeterminism(t *testing.T) {
	p := newTestPlanner(nil)
	first, err := p.Plan(context.Background(), batteryScenario(), solver.Options{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	second, err := p.Plan(context.Background(), batteryScenario(), solver.Options{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if math.Abs(first.Objective-second.Objective) > 1e-9 {
		t.Fatalf("objective not deterministic: %g vs %g", first.Objective, second.Objective)
	}
}

func TestPlanDegenerateStorageMatchesNoStorage(t *testing.T) {
	p := newTestPlanner(nil)

	without := batteryScenario()
	without.Demand = map[int]float64{1: 90, 2: 100, 3: 80, 4: 90, 5: 80}
	without.Storage = nil
	base, err := p.Plan(context.Background(), without, solver.Options{})
	if err != nil || base.Status != solver.StatusOptimal {
		t.Fatalf("base plan: %v %v", err, base.Status)
	}

	with := batteryScenario()
	with.Demand = map[int]float64{1: 90, 2: 100, 3: 80, 4: 90, 5: 80}
	with.Storage = &model.Storage{ChargeEff: 1, DischargeEff: 1}
	degenerate, err := p.Plan(context.Background(), with, solver.Options{})
	if err != nil || degenerate.Status != solver.StatusOptimal {
		t.Fatalf("degenerate plan: %v %v", err, degenerate.Status)
	}

	if math.Abs(base.Objective-degenerate.Objective) > 1e-6 {
		t.Fatalf("zero-capacity storage changed the objective: %g vs %g", base.Objective, degenerate.Objective)
	}
}

func TestPlanSinglePeriodTerminal(t *testing.T) {
	term := 0.0
	sc := &model.Scenario{
		Name:    "single",
		Periods: []int{1},
		Demand:  map[int]float64{1: 50},
		Sources: []model.Source{{
			Name:     "gas",
			Cost:     map[int]float64{1: 10},
			Capacity: map[int]float64{1: 100},
		}},
		Storage: &model.Storage{
			Capacity:       40,
			ChargeLimit:    20,
			DischargeLimit: 20,
			ChargeEff:      0.95,
			DischargeEff:   0.95,
			TerminalEnergy: &term,
		},
	}
	res, err := newTestPlanner(nil).Plan(context.Background(), sc, solver.Options{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if res.Status != solver.StatusOptimal {
		t.Fatalf("expected OPTIMAL, got %v", res.Status)
	}
	pd := res.Periods[0]
	if math.Abs(pd.Charge) > 1e-6 || math.Abs(pd.Discharge) > 1e-6 {
		t.Fatalf("cycling within a single pinned period wastes energy: charge=%g discharge=%g", pd.Charge, pd.Discharge)
	}
}

type capturingSink struct {
	solves     []coremetrics.SolveEvent
	generation []coremetrics.GenerationPoint
	storage    []coremetrics.StoragePoint
}

func (c *capturingSink) RecordSolve(ev coremetrics.SolveEvent) error {
	c.solves = append(c.solves, ev)
	return nil
}

func (c *capturingSink) RecordGeneration(points []coremetrics.GenerationPoint) error {
	c.generation = append(c.generation, points...)
	return nil
}

func (c *capturingSink) RecordStorage(points []coremetrics.StoragePoint) error {
	c.storage = append(c.storage, points...)
	return nil
}

func TestPlanRecordsMetrics(t *testing.T) {
	sink := &capturingSink{}
	res, err := newTestPlanner(sink).Plan(context.Background(), batteryScenario(), solver.Options{})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(sink.solves) != 1 {
		t.Fatalf("expected one solve event, got %d", len(sink.solves))
	}
	ev := sink.solves[0]
	if ev.Status != "OPTIMAL" || ev.PlanID != res.PlanID || ev.Periods != 5 || ev.Sources != 2 {
		t.Fatalf("solve event wrong: %+v", ev)
	}
	if len(sink.generation) != 10 {
		t.Fatalf("expected 10 generation points, got %d", len(sink.generation))
	}
	if len(sink.storage) != 5 {
		t.Fatalf("expected 5 storage points, got %d", len(sink.storage))
	}
}
