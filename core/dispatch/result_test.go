package dispatch

import (
	"errors"
	"testing"

	"github.com/kilianp07/gridplan/core/model"
	"github.com/kilianp07/gridplan/core/solver"
)

func TestExtractNonOptimal(t *testing.T) {
	sc := twoSourceScenario(nil)
	dm, err := BuildModel(sc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := Extract(sc, dm, solver.Solution{Status: solver.StatusInfeasible})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Status != solver.StatusInfeasible {
		t.Fatalf("expected infeasible status, got %v", res.Status)
	}
	if len(res.Periods) != 0 || res.Objective != 0 {
		t.Fatal("non-optimal result must carry only the status")
	}
}

func TestExtractConsistencyError(t *testing.T) {
	sc := twoSourceScenario(nil)
	dm, err := BuildModel(sc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// feasible-looking values that violate the balance in period 2
	values := make([]float64, dm.Model.NumVars())
	for j, d := range []float64{50, 60, 40} {
		values[dm.Gen[0][j].Index()] = d
	}
	values[dm.Gen[0][1].Index()] = 59 // short by 1

	_, err = Extract(sc, dm, solver.Solution{Status: solver.StatusOptimal, Values: values})
	var cerr *ConsistencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *ConsistencyError, got %v", err)
	}
	if cerr.Period != 2 {
		t.Fatalf("expected period 2, got %d", cerr.Period)
	}
}

func TestExtractSurplusAllowed(t *testing.T) {
	sc := twoSourceScenario(nil)
	sc.Balance = model.BalanceMeetOrExceed
	dm, err := BuildModel(sc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	values := make([]float64, dm.Model.NumVars())
	for j, d := range []float64{50, 60, 40} {
		values[dm.Gen[0][j].Index()] = d + 5 // over-generation
	}
	res, err := Extract(sc, dm, solver.Solution{Status: solver.StatusOptimal, Values: values})
	if err != nil {
		t.Fatalf("surplus must be accepted in meet_or_exceed mode: %v", err)
	}
	if res.Periods[0].Generation["coal"] != 55 {
		t.Fatalf("unexpected generation: %v", res.Periods[0].Generation)
	}
}

func TestExtractClampsRoundoff(t *testing.T) {
	sc := twoSourceScenario(nil)
	dm, err := BuildModel(sc)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	values := make([]float64, dm.Model.NumVars())
	for j, d := range []float64{50, 60, 40} {
		values[dm.Gen[0][j].Index()] = d
	}
	values[dm.Gen[1][0].Index()] = -1e-9 // solver round-off below zero
	values[dm.Gen[0][0].Index()] = 50 + 1e-9

	res, err := Extract(sc, dm, solver.Solution{Status: solver.StatusOptimal, Values: values})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Periods[0].Generation["wind"] != 0 {
		t.Fatalf("expected round-off clamped to zero, got %v", res.Periods[0].Generation["wind"])
	}
}
