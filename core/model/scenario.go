package model

import "fmt"

// BalanceMode selects how the per-period power balance is enforced.
type BalanceMode int

const (
	// BalanceEquality forces generation + discharge == demand + charge.
	BalanceEquality BalanceMode = iota
	// BalanceMeetOrExceed allows curtailment-free over-generation:
	// generation + discharge >= demand + charge.
	BalanceMeetOrExceed
)

func (m BalanceMode) String() string {
	switch m {
	case BalanceEquality:
		return "equality"
	case BalanceMeetOrExceed:
		return "meet_or_exceed"
	default:
		return "unknown"
	}
}

// DegradationModel selects the linear proxy used to price storage throughput.
type DegradationModel int

const (
	// DegradationAverage prices 0.5*(charge+discharge) per period.
	DegradationAverage DegradationModel = iota
	// DegradationDischarge prices discharged energy only.
	DegradationDischarge
	// DegradationPeak prices max(charge, discharge) per period via an
	// auxiliary variable.
	DegradationPeak
)

func (m DegradationModel) String() string {
	switch m {
	case DegradationAverage:
		return "average"
	case DegradationDischarge:
		return "discharge"
	case DegradationPeak:
		return "peak"
	default:
		return "unknown"
	}
}

// Source is one generation source with per-period cost and capacity.
// Every period of the scenario must be present in both maps.
type Source struct {
	Name     string
	Cost     map[int]float64 // currency per energy unit
	Capacity map[int]float64 // energy units, >= 0
}

// Storage describes the optional energy-storage device. Efficiencies lie in
// (0,1] and the degradation cost is charged per energy unit of throughput.
type Storage struct {
	Capacity        float64
	ChargeLimit     float64
	DischargeLimit  float64
	ChargeEff       float64
	DischargeEff    float64
	DegradationCost float64
	// StandingLoss is the fraction of SOC lost per period, in [0,1). It may
	// vary by period; nil means no standing loss.
	StandingLoss  map[int]float64
	InitialEnergy float64
	// TerminalEnergy pins the SOC of the last period when non-nil.
	TerminalEnergy *float64
}

// LossAt returns the standing-loss fraction for a period, defaulting to zero.
func (s *Storage) LossAt(period int) float64 {
	if s == nil || s.StandingLoss == nil {
		return 0
	}
	return s.StandingLoss[period]
}

// Scenario is the immutable description of one planning horizon. It is
// constructed once per run; nothing in the pipeline mutates it.
type Scenario struct {
	Name        string
	Periods     []int // ordered, contiguous
	Demand      map[int]float64
	Sources     []Source // order fixes variable order, keeping solves deterministic
	Storage     *Storage
	Balance     BalanceMode
	Degradation DegradationModel
}

// ValidationError reports a malformed or incomplete scenario. It is returned
// before any model is built.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid scenario: %s: %s", e.Field, e.Msg)
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks that the scenario is complete and all parameters are in
// range. It returns a *ValidationError describing the first problem found.
func (s *Scenario) Validate() error {
	if len(s.Periods) == 0 {
		return invalidf("periods", "at least one period is required")
	}
	for i := 1; i < len(s.Periods); i++ {
		if s.Periods[i] != s.Periods[i-1]+1 {
			return invalidf("periods", "periods must be contiguous, got %d after %d", s.Periods[i], s.Periods[i-1])
		}
	}
	for _, t := range s.Periods {
		d, ok := s.Demand[t]
		if !ok {
			return invalidf("demand", "no demand for period %d", t)
		}
		if d < 0 {
			return invalidf("demand", "negative demand %v for period %d", d, t)
		}
	}
	if len(s.Sources) == 0 {
		return invalidf("sources", "at least one generation source is required")
	}
	seen := make(map[string]bool, len(s.Sources))
	for _, src := range s.Sources {
		if src.Name == "" {
			return invalidf("sources", "source without a name")
		}
		if seen[src.Name] {
			return invalidf("sources", "duplicate source %q", src.Name)
		}
		seen[src.Name] = true
		for _, t := range s.Periods {
			if _, ok := src.Cost[t]; !ok {
				return invalidf("sources", "source %q has no cost for period %d", src.Name, t)
			}
			cap, ok := src.Capacity[t]
			if !ok {
				return invalidf("sources", "source %q has no capacity for period %d", src.Name, t)
			}
			if cap < 0 {
				return invalidf("sources", "source %q has negative capacity %v for period %d", src.Name, cap, t)
			}
		}
	}
	if s.Storage != nil {
		if err := s.validateStorage(); err != nil {
			return err
		}
	}
	switch s.Balance {
	case BalanceEquality, BalanceMeetOrExceed:
	default:
		return invalidf("balance", "unknown balance mode %d", s.Balance)
	}
	switch s.Degradation {
	case DegradationAverage, DegradationDischarge, DegradationPeak:
	default:
		return invalidf("degradation", "unknown degradation model %d", s.Degradation)
	}
	return nil
}

func (s *Scenario) validateStorage() error {
	st := s.Storage
	if st.Capacity < 0 {
		return invalidf("storage.capacity", "must be >= 0, got %v", st.Capacity)
	}
	if st.ChargeLimit < 0 {
		return invalidf("storage.charge_limit", "must be >= 0, got %v", st.ChargeLimit)
	}
	if st.DischargeLimit < 0 {
		return invalidf("storage.discharge_limit", "must be >= 0, got %v", st.DischargeLimit)
	}
	if st.ChargeEff <= 0 || st.ChargeEff > 1 {
		return invalidf("storage.charge_eff", "must be in (0,1], got %v", st.ChargeEff)
	}
	if st.DischargeEff <= 0 || st.DischargeEff > 1 {
		return invalidf("storage.discharge_eff", "must be in (0,1], got %v", st.DischargeEff)
	}
	if st.DegradationCost < 0 {
		return invalidf("storage.degradation_cost", "must be >= 0, got %v", st.DegradationCost)
	}
	for t, loss := range st.StandingLoss {
		if loss < 0 || loss >= 1 {
			return invalidf("storage.standing_loss", "must be in [0,1), got %v for period %d", loss, t)
		}
	}
	if st.InitialEnergy < 0 || st.InitialEnergy > st.Capacity {
		return invalidf("storage.initial_energy", "must be in [0,%v], got %v", st.Capacity, st.InitialEnergy)
	}
	if st.TerminalEnergy != nil {
		if *st.TerminalEnergy < 0 || *st.TerminalEnergy > st.Capacity {
			return invalidf("storage.terminal_energy", "must be in [0,%v], got %v", st.Capacity, *st.TerminalEnergy)
		}
	}
	return nil
}
