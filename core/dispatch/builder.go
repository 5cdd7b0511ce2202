// Package dispatch turns a scenario into a linear dispatch model, hands it to
// a solver and maps the raw solution back into a per-period report.
package dispatch

import (
	"fmt"

	"github.com/kilianp07/gridplan/core/lp"
	"github.com/kilianp07/gridplan/core/model"
)

// DispatchModel is the assembled LP for one scenario together with the
// variable handles needed to read the solution back.
type DispatchModel struct {
	Model *lp.Model
	// Gen is indexed [source][period] following scenario order.
	Gen [][]lp.Var
	// Charge, Discharge and Energy are indexed by period position and nil
	// when the scenario has no storage device.
	Charge    []lp.Var
	Discharge []lp.Var
	Energy    []lp.Var
	// Wear holds the auxiliary max(charge,discharge) variables of the peak
	// degradation model, nil otherwise.
	Wear []lp.Var
}

// HasStorage reports whether storage variables were created.
func (d *DispatchModel) HasStorage() bool { return d.Energy != nil }

// BuildModel assembles decision variables, the cost objective and the
// per-period balance constraints for a validated scenario, then layers the
// storage evolution on top. The scenario is not mutated.
func BuildModel(sc *model.Scenario) (*DispatchModel, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	m := lp.New(sc.Name)
	dm := &DispatchModel{Model: m, Gen: make([][]lp.Var, len(sc.Sources))}

	for i, src := range sc.Sources {
		dm.Gen[i] = make([]lp.Var, len(sc.Periods))
		for j, t := range sc.Periods {
			v := m.AddVariable(fmt.Sprintf("gen_%s_%d", src.Name, t), 0, src.Capacity[t])
			m.SetObjectiveTerm(src.Cost[t], v)
			dm.Gen[i][j] = v
		}
	}

	if st := sc.Storage; st != nil {
		n := len(sc.Periods)
		dm.Charge = make([]lp.Var, n)
		dm.Discharge = make([]lp.Var, n)
		dm.Energy = make([]lp.Var, n)
		for j, t := range sc.Periods {
			dm.Charge[j] = m.AddVariable(fmt.Sprintf("charge_%d", t), 0, st.ChargeLimit)
			dm.Discharge[j] = m.AddVariable(fmt.Sprintf("discharge_%d", t), 0, st.DischargeLimit)
			dm.Energy[j] = m.AddVariable(fmt.Sprintf("soc_%d", t), 0, st.Capacity)
		}
		addDegradationCost(dm, sc)
	}

	for j, t := range sc.Periods {
		var expr lp.Expr
		for i := range sc.Sources {
			expr.Add(1, dm.Gen[i][j])
		}
		if dm.HasStorage() {
			expr.Add(1, dm.Discharge[j])
			expr.Add(-1, dm.Charge[j])
		}
		sense := lp.Equal
		if sc.Balance == model.BalanceMeetOrExceed {
			sense = lp.GreaterEq
		}
		m.AddConstraint(lp.Constraint{
			Name:  fmt.Sprintf("balance_%d", t),
			Expr:  expr,
			Sense: sense,
			RHS:   sc.Demand[t],
		})
	}

	applyStorageEvolution(dm, sc)
	return dm, nil
}

// addDegradationCost prices storage throughput according to the scenario's
// degradation model. All three variants are linear.
func addDegradationCost(dm *DispatchModel, sc *model.Scenario) {
	st := sc.Storage
	if st.DegradationCost == 0 {
		return
	}
	m := dm.Model
	switch sc.Degradation {
	case model.DegradationAverage:
		for j := range sc.Periods {
			m.SetObjectiveTerm(0.5*st.DegradationCost, dm.Charge[j])
			m.SetObjectiveTerm(0.5*st.DegradationCost, dm.Discharge[j])
		}
	case model.DegradationDischarge:
		for j := range sc.Periods {
			m.SetObjectiveTerm(st.DegradationCost, dm.Discharge[j])
		}
	case model.DegradationPeak:
		// wear_t >= charge_t and wear_t >= discharge_t; minimization
		// pulls wear_t down to max(charge_t, discharge_t).
		dm.Wear = make([]lp.Var, len(sc.Periods))
		for j, t := range sc.Periods {
			limit := st.ChargeLimit
			if st.DischargeLimit > limit {
				limit = st.DischargeLimit
			}
			w := m.AddVariable(fmt.Sprintf("wear_%d", t), 0, limit)
			dm.Wear[j] = w
			var chExpr lp.Expr
			chExpr.Add(1, dm.Charge[j])
			chExpr.Add(-1, w)
			m.AddConstraint(lp.Constraint{
				Name:  fmt.Sprintf("wear_charge_%d", t),
				Expr:  chExpr,
				Sense: lp.LessEq,
			})
			var disExpr lp.Expr
			disExpr.Add(1, dm.Discharge[j])
			disExpr.Add(-1, w)
			m.AddConstraint(lp.Constraint{
				Name:  fmt.Sprintf("wear_discharge_%d", t),
				Expr:  disExpr,
				Sense: lp.LessEq,
			})
			m.SetObjectiveTerm(st.DegradationCost, w)
		}
	}
}
