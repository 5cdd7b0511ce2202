package dispatch

import (
	"fmt"
	"math"

	"github.com/kilianp07/gridplan/core/model"
	"github.com/kilianp07/gridplan/core/solver"
)

// balanceTol bounds the accepted power-balance residual when re-checking an
// optimal solution.
const balanceTol = 1e-6

// PeriodDispatch is the dispatch of one period.
type PeriodDispatch struct {
	Period     int                `json:"period"`
	Demand     float64            `json:"demand"`
	Generation map[string]float64 `json:"generation"`
	Charge     float64            `json:"charge,omitempty"`
	Discharge  float64            `json:"discharge,omitempty"`
	SOC        float64            `json:"soc,omitempty"`
}

// DispatchResult is the structured outcome of a plan. For a non-optimal
// status only PlanID, Scenario and Status are populated.
type DispatchResult struct {
	PlanID     string           `json:"plan_id"`
	Scenario   string           `json:"scenario,omitempty"`
	Status     solver.Status    `json:"status"`
	Objective  float64          `json:"objective,omitempty"`
	Sources    []string         `json:"sources,omitempty"`
	HasStorage bool             `json:"has_storage,omitempty"`
	Periods    []PeriodDispatch `json:"periods,omitempty"`
}

// ConsistencyError reports a power-balance residual beyond tolerance in a
// solution the solver claimed optimal. It indicates a construction bug or
// solver numerical drift and is always surfaced.
type ConsistencyError struct {
	Period   int
	Residual float64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent solution: period %d balance residual %g exceeds %g", e.Period, e.Residual, balanceTol)
}

// Extract maps raw variable values back to a per-period report. For a
// non-optimal solution it returns a result carrying only the status. Optimal
// solutions are re-checked period by period against the power balance.
func Extract(sc *model.Scenario, dm *DispatchModel, sol solver.Solution) (*DispatchResult, error) {
	res := &DispatchResult{
		Scenario: sc.Name,
		Status:   sol.Status,
	}
	if sol.Status != solver.StatusOptimal {
		return res, nil
	}

	res.Objective = sol.Objective
	res.HasStorage = dm.HasStorage()
	res.Sources = make([]string, len(sc.Sources))
	for i, src := range sc.Sources {
		res.Sources[i] = src.Name
	}

	res.Periods = make([]PeriodDispatch, len(sc.Periods))
	for j, t := range sc.Periods {
		pd := PeriodDispatch{
			Period:     t,
			Demand:     sc.Demand[t],
			Generation: make(map[string]float64, len(sc.Sources)),
		}
		var produced float64
		for i, src := range sc.Sources {
			g := clampTiny(sol.Values[dm.Gen[i][j].Index()])
			pd.Generation[src.Name] = g
			produced += g
		}
		if dm.HasStorage() {
			pd.Charge = clampTiny(sol.Values[dm.Charge[j].Index()])
			pd.Discharge = clampTiny(sol.Values[dm.Discharge[j].Index()])
			pd.SOC = clampTiny(sol.Values[dm.Energy[j].Index()])
		}

		residual := produced + pd.Discharge - pd.Demand - pd.Charge
		switch sc.Balance {
		case model.BalanceMeetOrExceed:
			if residual < -balanceTol {
				return nil, &ConsistencyError{Period: t, Residual: residual}
			}
		default:
			if math.Abs(residual) > balanceTol {
				return nil, &ConsistencyError{Period: t, Residual: residual}
			}
		}
		res.Periods[j] = pd
	}
	return res, nil
}

// clampTiny squashes solver round-off below zero; anything larger than the
// balance tolerance is left alone so the consistency check can see it.
func clampTiny(v float64) float64 {
	if v < 0 && v > -balanceTol {
		return 0
	}
	return v
}
