/*
Package hrprocess runs the HR termination and leave workflow around the
calculation engine.

PURPOSE:
  The engine is pure. This package is its caller: it looks up the
  employee, builds calculation parameters, persists the resulting
  breakdown on a process record, and walks the record through review.

PROCESS FLOW:
  ┌─────────┐  review   ┌────────────┐  approve  ┌──────────┐
  │ pending │ ────────▶ │ em_analise │ ────────▶ │ aprovado │
  └─────────┘           └────────────┘           └──────────┘
       │                      │ reject
       │ reject               ▼
       └──────────────▶ ┌───────────┐
                        │ rejeitado │
                        └───────────┘

  Every creation and transition appends a HistoryEntry.

SEE ALSO:
  - calculation/: The engine
  - store/sqlite, store/postgres, store/memory: Store implementations
*/
package hrprocess

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/generic"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	ID            string
	Name          string
	Email         string
	Salary        decimal.Decimal
	AdmissionDate generic.TimePoint
	CreatedAt     time.Time
}

// =============================================================================
// PROCESS
// =============================================================================

type Kind string

const (
	KindTermination Kind = "termination"
	KindLeave       Kind = "leave"
)

// Process is one termination or leave case for an employee. Exactly one of
// Termination and Leave is set, matching Kind.
type Process struct {
	ID          string
	EmployeeID  string
	Kind        Kind
	Status      Status
	Params      calculation.Parameters
	Termination *calculation.TerminationBreakdown
	Leave       *calculation.LeaveBreakdown
	Reason      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TotalAmount is the payable total of whichever breakdown is set.
func (p *Process) TotalAmount() decimal.Decimal {
	switch {
	case p.Termination != nil:
		return p.Termination.TotalAmount
	case p.Leave != nil:
		return p.Leave.TotalAmount
	default:
		return decimal.Zero
	}
}

// Conflict returns an error wrapping generic.ErrDuplicate when p cannot be
// opened next to the employee's existing processes. Rejected processes never
// conflict. Stores call it inside the same write that inserts p.
func (p *Process) Conflict(existing []Process) error {
	for _, other := range existing {
		if other.ID == p.ID || other.EmployeeID != p.EmployeeID ||
			other.Kind != p.Kind || other.Status == StatusRejected {
			continue
		}
		switch p.Kind {
		case KindTermination:
			return fmt.Errorf("employee %s already has termination %s: %w",
				p.EmployeeID, other.ID, generic.ErrDuplicate)
		case KindLeave:
			if p.Params.LeavePeriod().Overlaps(other.Params.LeavePeriod()) {
				return fmt.Errorf("leave %s overlaps %s (process %s): %w",
					p.Params.LeavePeriod(), other.Params.LeavePeriod(), other.ID, generic.ErrDuplicate)
			}
		}
	}
	return nil
}

// HistoryEntry records a status change. FromStatus is empty on creation;
// FromStatus == ToStatus marks a recalculation.
type HistoryEntry struct {
	ID         string
	ProcessID  string
	FromStatus Status
	ToStatus   Status
	Actor      string
	Note       string
	At         time.Time
}

// LeaveRequest is the leave-specific input to OpenLeave.
type LeaveRequest struct {
	Start                 generic.TimePoint
	End                   generic.TimePoint
	Type                  calculation.LeaveType
	HasMedicalCertificate bool
}
