/*
Package calculation computes Brazilian severance and leave payments.

PURPOSE:
  A pure rules engine. Given an employee's salary and admission date plus
  either a termination date or a leave range and type, it returns a
  structured breakdown. It performs no I/O and holds no mutable state, so
  every call is reentrant and safe for concurrent use.

OPERATIONS:
  CalculateTermination: salary balance, vacation, 13th salary, notice,
                        FGTS fine, other benefits, INSS + IR deductions
  CalculateLeave:       daily and total amount for a leave of absence

ROUNDING:
  Every monetary component is rounded to centavos before totals are
  summed, so the returned totals equal the sum of the returned parts.

SEE ALSO:
  - tax/: Bracket tables and evaluation
  - generic/time.go: Tenure arithmetic
  - hrprocess/: The workflow that persists these results
*/
package calculation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/generic"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

type LeaveType string

const (
	LeaveWorkAccident LeaveType = "acidente_trabalho"
	LeaveSickness     LeaveType = "doenca"
	LeaveMaternity    LeaveType = "maternidade"
	LeavePaternity    LeaveType = "paternidade"
	LeaveVacation     LeaveType = "ferias"
)

// =============================================================================
// PARAMETERS
// =============================================================================

// Parameters carries either the termination group (TerminationDate) or the
// leave group (LeaveStartDate, LeaveEndDate, LeaveType, HasMedicalCertificate),
// never both.
type Parameters struct {
	Salary                decimal.Decimal   `json:"salary"`
	AdmissionDate         generic.TimePoint `json:"admission_date"`
	TerminationDate       generic.TimePoint `json:"termination_date,omitempty"`
	LeaveStartDate        generic.TimePoint `json:"leave_start_date,omitempty"`
	LeaveEndDate          generic.TimePoint `json:"leave_end_date,omitempty"`
	LeaveType             LeaveType         `json:"leave_type,omitempty"`
	HasMedicalCertificate bool              `json:"has_medical_certificate,omitempty"`
}

func (p Parameters) hasTermination() bool {
	return !p.TerminationDate.IsZero()
}

func (p Parameters) hasLeave() bool {
	return !p.LeaveStartDate.IsZero() || !p.LeaveEndDate.IsZero() ||
		p.LeaveType != "" || p.HasMedicalCertificate
}

func (p Parameters) validateSalary() error {
	if p.Salary.IsNegative() {
		return generic.InvalidArgument("salary", "must not be negative")
	}
	return nil
}

func (p Parameters) validateTermination() error {
	if !p.hasTermination() {
		return generic.InvalidArgument("termination_date", "required")
	}
	if p.hasLeave() {
		return generic.InvalidArgument("leave", "leave fields cannot be combined with a termination")
	}
	if err := p.validateSalary(); err != nil {
		return err
	}
	if p.AdmissionDate.IsZero() {
		return generic.InvalidArgument("admission_date", "required")
	}
	if p.AdmissionDate.After(p.TerminationDate) {
		return generic.InvalidArgument("admission_date", "must not be after termination_date")
	}
	return nil
}

func (p Parameters) validateLeave() error {
	if p.hasTermination() {
		return generic.InvalidArgument("termination_date", "cannot be combined with leave fields")
	}
	if err := p.validateSalary(); err != nil {
		return err
	}
	switch {
	case p.LeaveStartDate.IsZero():
		return generic.InvalidArgument("leave_start_date", "required")
	case p.LeaveEndDate.IsZero():
		return generic.InvalidArgument("leave_end_date", "required")
	case p.LeaveType == "":
		return generic.InvalidArgument("leave_type", "required")
	case p.LeaveEndDate.Before(p.LeaveStartDate):
		return generic.InvalidArgument("leave_end_date", "must not be before leave_start_date")
	}
	return nil
}

// LeavePeriod is the inclusive leave range.
func (p Parameters) LeavePeriod() generic.Period {
	return generic.Period{Start: p.LeaveStartDate, End: p.LeaveEndDate}
}
