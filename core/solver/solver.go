// Package solver defines the seam between the dispatch model and an external
// LP backend. Infeasibility and unboundedness are terminal statuses, not
// errors; only an unreachable or crashing backend yields an error.
package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/gridplan/core/lp"
)

// Status is the terminal state reported by a solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusUnbounded:
		return "UNBOUNDED"
	case StatusUnavailable:
		return "SOLVER_UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the status as its string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status from its string form.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "OPTIMAL":
		*s = StatusOptimal
	case "INFEASIBLE":
		*s = StatusInfeasible
	case "UNBOUNDED":
		*s = StatusUnbounded
	case "SOLVER_UNAVAILABLE":
		*s = StatusUnavailable
	case "UNKNOWN":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown solver status %q", str)
	}
	return nil
}

// Solution carries the raw outcome of one solve. Values is indexed by
// variable column and is nil unless Status is StatusOptimal.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Options tunes a single solve call.
type Options struct {
	// TimeLimit bounds the solve; zero means no limit. A solve cut off by
	// the limit reports StatusUnknown.
	TimeLimit time.Duration
	// Tol overrides the backend tolerance when positive.
	Tol float64
}

// Solver hands a model to an LP backend. Implementations must return a nil
// error for infeasible or unbounded models and reserve errors for backend
// failures.
type Solver interface {
	Solve(ctx context.Context, m *lp.Model, opts Options) (Solution, error)
}

// UnavailableError reports a backend that could not be reached or crashed
// mid-solve. It is never retried by the core pipeline.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("solver unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
