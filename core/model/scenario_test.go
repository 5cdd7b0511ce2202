package model

import (
	"errors"
	"strings"
	"testing"
)

func validScenario() *Scenario {
	term := 0.0
	return &Scenario{
		Name:    "valid",
		Periods: []int{1, 2, 3},
		Demand:  map[int]float64{1: 10, 2: 12, 3: 8},
		Sources: []Source{
			{
				Name:     "gas",
				Cost:     map[int]float64{1: 30, 2: 30, 3: 30},
				Capacity: map[int]float64{1: 20, 2: 20, 3: 20},
			},
		},
		Storage: &Storage{
			Capacity:       15,
			ChargeLimit:    5,
			DischargeLimit: 5,
			ChargeEff:      0.9,
			DischargeEff:   0.9,
			InitialEnergy:  3,
			TerminalEnergy: &term,
		},
	}
}

func TestScenarioValidateOK(t *testing.T) {
	if err := validScenario().Validate(); err != nil {
		t.Fatalf("expected valid scenario, got %v", err)
	}
}

func TestScenarioValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Scenario)
		field  string
	}{
		{"no periods", func(s *Scenario) { s.Periods = nil }, "periods"},
		{"gap in periods", func(s *Scenario) { s.Periods = []int{1, 3, 4} }, "periods"},
		{"missing demand", func(s *Scenario) { delete(s.Demand, 2) }, "demand"},
		{"negative demand", func(s *Scenario) { s.Demand[1] = -1 }, "demand"},
		{"no sources", func(s *Scenario) { s.Sources = nil }, "sources"},
		{"missing cost", func(s *Scenario) { delete(s.Sources[0].Cost, 3) }, "sources"},
		{"missing capacity", func(s *Scenario) { delete(s.Sources[0].Capacity, 1) }, "sources"},
		{"negative capacity", func(s *Scenario) { s.Sources[0].Capacity[2] = -5 }, "sources"},
		{"duplicate source", func(s *Scenario) { s.Sources = append(s.Sources, s.Sources[0]) }, "sources"},
		{"charge eff zero", func(s *Scenario) { s.Storage.ChargeEff = 0 }, "storage.charge_eff"},
		{"charge eff above one", func(s *Scenario) { s.Storage.ChargeEff = 1.2 }, "storage.charge_eff"},
		{"discharge eff zero", func(s *Scenario) { s.Storage.DischargeEff = 0 }, "storage.discharge_eff"},
		{"standing loss one", func(s *Scenario) { s.Storage.StandingLoss = map[int]float64{2: 1} }, "storage.standing_loss"},
		{"negative degradation", func(s *Scenario) { s.Storage.DegradationCost = -1 }, "storage.degradation_cost"},
		{"initial above capacity", func(s *Scenario) { s.Storage.InitialEnergy = 99 }, "storage.initial_energy"},
		{"terminal above capacity", func(s *Scenario) { v := 99.0; s.Storage.TerminalEnergy = &v }, "storage.terminal_energy"},
		{"negative storage capacity", func(s *Scenario) { s.Storage.Capacity = -1 }, "storage.capacity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := validScenario()
			tc.mutate(sc)
			err := sc.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q (%v)", tc.field, verr.Field, err)
			}
		})
	}
}

func TestScenarioValidateNoStorage(t *testing.T) {
	sc := validScenario()
	sc.Storage = nil
	if err := sc.Validate(); err != nil {
		t.Fatalf("storage must be optional: %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	sc := validScenario()
	delete(sc.Demand, 3)
	err := sc.Validate()
	if err == nil || !strings.Contains(err.Error(), "period 3") {
		t.Fatalf("expected message naming the missing period, got %v", err)
	}
}

func TestStorageLossAt(t *testing.T) {
	var st *Storage
	if st.LossAt(1) != 0 {
		t.Fatal("nil storage should have zero loss")
	}
	st = &Storage{StandingLoss: map[int]float64{2: 0.01}}
	if st.LossAt(2) != 0.01 || st.LossAt(1) != 0 {
		t.Fatal("standing loss lookup wrong")
	}
}
