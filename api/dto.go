/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine breakdowns
  (calculation.TerminationBreakdown, calculation.LeaveBreakdown) and tax
  tables are serialized as-is; HR records get their own DTOs so storage
  fields never leak into the contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND DATES:
  Amounts are decimal strings ("3000.00"); requests also accept JSON
  numbers. Dates are "YYYY-MM-DD".

VALIDATION:
  Validation is done by the service and the engine, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - calculation/: Breakdown types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Email         string            `json:"email,omitempty"`
	Salary        string            `json:"salary"`
	AdmissionDate generic.TimePoint `json:"admission_date"`
	CreatedAt     string            `json:"created_at,omitempty"`
}

type CreateEmployeeRequest struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	Salary        decimal.Decimal   `json:"salary"`
	AdmissionDate generic.TimePoint `json:"admission_date"`
}

func toEmployeeDTO(e hrprocess.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:            e.ID,
		Name:          e.Name,
		Email:         e.Email,
		Salary:        e.Salary.StringFixed(2),
		AdmissionDate: e.AdmissionDate,
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// PROCESSES
// =============================================================================

type ProcessDTO struct {
	ID          string                            `json:"id"`
	EmployeeID  string                            `json:"employee_id"`
	Kind        hrprocess.Kind                    `json:"kind"`
	Status      hrprocess.Status                  `json:"status"`
	Reason      string                            `json:"reason,omitempty"`
	Params      calculation.Parameters            `json:"params"`
	Termination *calculation.TerminationBreakdown `json:"termination,omitempty"`
	Leave       *calculation.LeaveBreakdown       `json:"leave,omitempty"`
	TotalAmount string                            `json:"total_amount"`
	CreatedAt   string                            `json:"created_at"`
	UpdatedAt   string                            `json:"updated_at"`
}

func toProcessDTO(p hrprocess.Process) ProcessDTO {
	return ProcessDTO{
		ID:          p.ID,
		EmployeeID:  p.EmployeeID,
		Kind:        p.Kind,
		Status:      p.Status,
		Reason:      p.Reason,
		Params:      p.Params,
		Termination: p.Termination,
		Leave:       p.Leave,
		TotalAmount: p.TotalAmount().StringFixed(2),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

// OpenTerminationRequest opens a termination for the employee in the URL.
type OpenTerminationRequest struct {
	TerminationDate generic.TimePoint `json:"termination_date"`
	Reason          string            `json:"reason"`
	Actor           string            `json:"actor"`
}

// OpenLeaveRequest opens a leave for the employee in the URL.
type OpenLeaveRequest struct {
	LeaveStartDate        generic.TimePoint     `json:"leave_start_date"`
	LeaveEndDate          generic.TimePoint     `json:"leave_end_date"`
	LeaveType             calculation.LeaveType `json:"leave_type"`
	HasMedicalCertificate bool                  `json:"has_medical_certificate"`
	Reason                string                `json:"reason"`
	Actor                 string                `json:"actor"`
}

type TransitionRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	Note   string `json:"note"`
}

type RecalculateRequest struct {
	Actor string `json:"actor"`
}

type HistoryEntryDTO struct {
	ID         string           `json:"id"`
	FromStatus hrprocess.Status `json:"from_status,omitempty"`
	ToStatus   hrprocess.Status `json:"to_status"`
	Actor      string           `json:"actor,omitempty"`
	Note       string           `json:"note,omitempty"`
	At         string           `json:"at"`
}

func toHistoryDTO(e hrprocess.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:         e.ID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Actor:      e.Actor,
		Note:       e.Note,
		At:         e.At.Format(time.RFC3339),
	}
}

// =============================================================================
// MISC
// =============================================================================

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
