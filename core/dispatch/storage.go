package dispatch

import (
	"fmt"

	"github.com/kilianp07/gridplan/core/lp"
	"github.com/kilianp07/gridplan/core/model"
)

// applyStorageEvolution encodes the temporal coupling of the storage device:
// one SOC recurrence per period plus the optional terminal pin. For period t,
//
//	soc_t = (1-loss_t)*soc_{t-1} + chargeEff*charge_t - discharge_t/dischargeEff
//
// with the scenario's initial energy standing in for soc_0. The whole horizon
// is solved jointly, so the plan has perfect foresight within the horizon.
func applyStorageEvolution(dm *DispatchModel, sc *model.Scenario) {
	if !dm.HasStorage() {
		return
	}
	st := sc.Storage
	m := dm.Model

	for j, t := range sc.Periods {
		carry := 1 - st.LossAt(t)
		var expr lp.Expr
		expr.Add(1, dm.Energy[j])
		expr.Add(-st.ChargeEff, dm.Charge[j])
		expr.Add(1/st.DischargeEff, dm.Discharge[j])
		rhs := 0.0
		if j == 0 {
			rhs = carry * st.InitialEnergy
		} else {
			expr.Add(-carry, dm.Energy[j-1])
		}
		m.AddConstraint(lp.Constraint{
			Name:  fmt.Sprintf("soc_%d", t),
			Expr:  expr,
			Sense: lp.Equal,
			RHS:   rhs,
		})
	}

	if st.TerminalEnergy != nil {
		last := len(sc.Periods) - 1
		var expr lp.Expr
		expr.Add(1, dm.Energy[last])
		m.AddConstraint(lp.Constraint{
			Name:  "terminal_soc",
			Expr:  expr,
			Sense: lp.Equal,
			RHS:   *st.TerminalEnergy,
		})
	}
}
