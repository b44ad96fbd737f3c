package calculation

import (
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/tax"
)

// =============================================================================
// ENGINE - Immutable holder of the withholding tables
// =============================================================================

// Engine evaluates calculations against a fixed set of tax tables. It has
// no mutable state; share one value across goroutines.
type Engine struct {
	tables tax.Tables
}

// New validates the tables and returns an engine bound to a private copy.
func New(tables tax.Tables) (Engine, error) {
	if err := tables.Validate(); err != nil {
		return Engine{}, err
	}
	return Engine{tables: tables.Clone()}, nil
}

// Default returns an engine over the built-in tables.
func Default() Engine {
	return Engine{tables: tax.DefaultTables()}
}

// Tables returns a copy of the tables in effect.
func (e Engine) Tables() tax.Tables {
	return e.tables.Clone()
}

// CalculateTermination computes the severance breakdown.
func (e Engine) CalculateTermination(p Parameters) (TerminationBreakdown, error) {
	return calculateTermination(p, e.tables)
}

// CalculateLeave computes the leave payment. Leave payments carry no
// withholding.
func (e Engine) CalculateLeave(p Parameters) (LeaveBreakdown, error) {
	return calculateLeave(p)
}

// Result holds exactly one of the two breakdowns.
type Result struct {
	Termination *TerminationBreakdown `json:"termination,omitempty"`
	Leave       *LeaveBreakdown       `json:"leave,omitempty"`
}

// Calculate dispatches on which parameter group is present.
func (e Engine) Calculate(p Parameters) (Result, error) {
	switch {
	case p.hasTermination() && p.hasLeave():
		return Result{}, generic.InvalidArgument("parameters", "termination and leave fields are mutually exclusive")
	case p.hasTermination():
		b, err := e.CalculateTermination(p)
		if err != nil {
			return Result{}, err
		}
		return Result{Termination: &b}, nil
	case p.hasLeave():
		b, err := e.CalculateLeave(p)
		if err != nil {
			return Result{}, err
		}
		return Result{Leave: &b}, nil
	default:
		return Result{}, generic.InvalidArgument("parameters", "either termination_date or leave fields are required")
	}
}

// =============================================================================
// PACKAGE-LEVEL SHORTCUTS (default tables)
// =============================================================================

// CalculateTermination uses the built-in tables.
func CalculateTermination(p Parameters) (TerminationBreakdown, error) {
	return Default().CalculateTermination(p)
}

// CalculateLeave uses the built-in tables.
func CalculateLeave(p Parameters) (LeaveBreakdown, error) {
	return Default().CalculateLeave(p)
}
