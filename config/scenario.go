package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/gridplan/core/model"
)

// Scenario files accept per-period values either as a mapping keyed by period
// or as a single scalar applied to every period, mirroring how constant costs
// are usually written.
type scenarioFile struct {
	Name        string             `json:"name"`
	Periods     []int              `json:"periods"`
	Demand      map[string]float64 `json:"demand"`
	Sources     []sourceFile       `json:"sources"`
	Storage     *storageFile       `json:"storage"`
	Balance     string             `json:"balance"`
	Degradation string             `json:"degradation"`
}

type sourceFile struct {
	Name     string `json:"name"`
	Cost     any    `json:"cost"`
	Capacity any    `json:"capacity"`
}

type storageFile struct {
	Capacity        float64  `json:"capacity"`
	ChargeLimit     float64  `json:"charge_limit"`
	DischargeLimit  float64  `json:"discharge_limit"`
	ChargeEff       float64  `json:"charge_eff"`
	DischargeEff    float64  `json:"discharge_eff"`
	DegradationCost float64  `json:"degradation_cost"`
	StandingLoss    any      `json:"standing_loss"`
	InitialEnergy   float64  `json:"initial_energy"`
	TerminalEnergy  *float64 `json:"terminal_energy"`
}

// LoadScenario reads a yaml or json scenario file and returns a validated
// scenario.
func LoadScenario(path string) (*model.Scenario, error) {
	k := koanf.New(".")
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sf scenarioFile
	if err := k.UnmarshalWithConf("", &sf, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	sc, err := sf.toScenario()
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sf *scenarioFile) toScenario() (*model.Scenario, error) {
	sc := &model.Scenario{
		Name:    sf.Name,
		Periods: sf.Periods,
		Demand:  make(map[int]float64, len(sf.Demand)),
	}
	for key, d := range sf.Demand {
		t, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("demand period %q is not an integer", key)
		}
		sc.Demand[t] = d
	}

	for _, src := range sf.Sources {
		cost, err := expandPerPeriod(src.Cost, sf.Periods)
		if err != nil {
			return nil, fmt.Errorf("source %q cost: %w", src.Name, err)
		}
		capacity, err := expandPerPeriod(src.Capacity, sf.Periods)
		if err != nil {
			return nil, fmt.Errorf("source %q capacity: %w", src.Name, err)
		}
		sc.Sources = append(sc.Sources, model.Source{Name: src.Name, Cost: cost, Capacity: capacity})
	}

	if sf.Storage != nil {
		st := &model.Storage{
			Capacity:        sf.Storage.Capacity,
			ChargeLimit:     sf.Storage.ChargeLimit,
			DischargeLimit:  sf.Storage.DischargeLimit,
			ChargeEff:       sf.Storage.ChargeEff,
			DischargeEff:    sf.Storage.DischargeEff,
			DegradationCost: sf.Storage.DegradationCost,
			InitialEnergy:   sf.Storage.InitialEnergy,
			TerminalEnergy:  sf.Storage.TerminalEnergy,
		}
		if sf.Storage.StandingLoss != nil {
			loss, err := expandPerPeriod(sf.Storage.StandingLoss, sf.Periods)
			if err != nil {
				return nil, fmt.Errorf("storage standing_loss: %w", err)
			}
			st.StandingLoss = loss
		}
		sc.Storage = st
	}

	var err error
	if sc.Balance, err = parseBalance(sf.Balance); err != nil {
		return nil, err
	}
	if sc.Degradation, err = parseDegradation(sf.Degradation); err != nil {
		return nil, err
	}
	return sc, nil
}

func parseBalance(s string) (model.BalanceMode, error) {
	switch s {
	case "", "equality":
		return model.BalanceEquality, nil
	case "meet_or_exceed":
		return model.BalanceMeetOrExceed, nil
	default:
		return 0, fmt.Errorf("unknown balance mode %q", s)
	}
}

func parseDegradation(s string) (model.DegradationModel, error) {
	switch s {
	case "", "average":
		return model.DegradationAverage, nil
	case "discharge":
		return model.DegradationDischarge, nil
	case "peak":
		return model.DegradationPeak, nil
	default:
		return 0, fmt.Errorf("unknown degradation model %q", s)
	}
}

// expandPerPeriod coerces a scalar or a period-keyed mapping into a complete
// per-period table.
func expandPerPeriod(v any, periods []int) (map[int]float64, error) {
	out := make(map[int]float64, len(periods))
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("value is missing")
	case map[string]any:
		for key, raw := range val {
			t, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("period %q is not an integer", key)
			}
			f, ok := toFloat(raw)
			if !ok {
				return nil, fmt.Errorf("period %d has non-numeric value %v", t, raw)
			}
			out[t] = f
		}
		return out, nil
	default:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("expected a number or a period mapping, got %T", v)
		}
		for _, t := range periods {
			out[t] = f
		}
		return out, nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
