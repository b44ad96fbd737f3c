/*
handlers.go - HTTP API handlers for the severance and leave engine

PURPOSE:
  Exposes the calculation engine and the HR process workflow via REST.
  Handles HTTP request/response and JSON serialization, and delegates
  to hrprocess.Service.

ENDPOINTS:
  Calculations (stateless):
    POST   /api/calculations              Dispatch on the parameter group
    POST   /api/calculations/termination  Severance breakdown
    POST   /api/calculations/leave        Leave payment
    GET    /api/tax-tables                INSS and IR tables in effect

  Employees:
    GET    /api/employees                 List employees
    POST   /api/employees                 Register employee
    GET    /api/employees/{id}            Employee details
    GET    /api/employees/{id}/processes  Employee's processes, newest first
    POST   /api/employees/{id}/terminations  Open a termination
    POST   /api/employees/{id}/leaves        Open a leave

  Processes:
    GET    /api/processes/{id}                Process with breakdown
    POST   /api/processes/{id}/transition     Move through review
    POST   /api/processes/{id}/recalculate    Recompute with current tables
    GET    /api/processes/{id}/history        Status log
    GET    /api/processes/{id}/statement.pdf  Printable statement

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Employee or process not found
  - 409: Workflow conflict, duplicate, concurrent modification
  - 500: Internal errors (details logged, not returned)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
	"github.com/warp/severance-engine/statement"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *hrprocess.Service
	Logger  *zap.Logger
}

func NewHandler(svc *hrprocess.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Logger: logger}
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate runs whichever calculation the parameters describe.
// POST /api/calculations
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var params calculation.Parameters
	if !h.decode(w, r, &params) {
		return
	}
	result, err := h.Service.Simulate(params)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/calculations/termination
func (h *Handler) CalculateTermination(w http.ResponseWriter, r *http.Request) {
	var params calculation.Parameters
	if !h.decode(w, r, &params) {
		return
	}
	b, err := h.Service.Engine().CalculateTermination(params)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// POST /api/calculations/leave
func (h *Handler) CalculateLeave(w http.ResponseWriter, r *http.Request) {
	var params calculation.Parameters
	if !h.decode(w, r, &params) {
		return
	}
	b, err := h.Service.Engine().CalculateLeave(params)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GET /api/tax-tables
func (h *Handler) GetTaxTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Engine().Tables())
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	emp, err := h.Service.RegisterEmployee(r.Context(), hrprocess.Employee{
		ID:            req.ID,
		Name:          req.Name,
		Email:         req.Email,
		Salary:        req.Salary,
		AdmissionDate: req.AdmissionDate,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*emp))
}

// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// GET /api/employees/{id}/processes
func (h *Handler) ListEmployeeProcesses(w http.ResponseWriter, r *http.Request) {
	processes, err := h.Service.ListProcesses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]ProcessDTO, len(processes))
	for i, p := range processes {
		dtos[i] = toProcessDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/employees/{id}/terminations
func (h *Handler) OpenTermination(w http.ResponseWriter, r *http.Request) {
	var req OpenTerminationRequest
	if !h.decode(w, r, &req) {
		return
	}

	proc, err := h.Service.OpenTermination(r.Context(), chi.URLParam(r, "id"), req.TerminationDate, req.Reason, req.Actor)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProcessDTO(*proc))
}

// POST /api/employees/{id}/leaves
func (h *Handler) OpenLeave(w http.ResponseWriter, r *http.Request) {
	var req OpenLeaveRequest
	if !h.decode(w, r, &req) {
		return
	}

	proc, err := h.Service.OpenLeave(r.Context(), chi.URLParam(r, "id"), hrprocess.LeaveRequest{
		Start:                 req.LeaveStartDate,
		End:                   req.LeaveEndDate,
		Type:                  req.LeaveType,
		HasMedicalCertificate: req.HasMedicalCertificate,
	}, req.Reason, req.Actor)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProcessDTO(*proc))
}

// =============================================================================
// PROCESS HANDLERS
// =============================================================================

// GET /api/processes/{id}
func (h *Handler) GetProcess(w http.ResponseWriter, r *http.Request) {
	proc, err := h.Service.GetProcess(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProcessDTO(*proc))
}

// POST /api/processes/{id}/transition
func (h *Handler) TransitionProcess(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	to, err := hrprocess.ParseStatus(req.Status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	proc, err := h.Service.Transition(r.Context(), chi.URLParam(r, "id"), to, req.Actor, req.Note)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProcessDTO(*proc))
}

// POST /api/processes/{id}/recalculate
// The body is optional.
func (h *Handler) RecalculateProcess(w http.ResponseWriter, r *http.Request) {
	var req RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	proc, err := h.Service.Recalculate(r.Context(), chi.URLParam(r, "id"), req.Actor)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProcessDTO(*proc))
}

// GET /api/processes/{id}/history
func (h *Handler) GetProcessHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toHistoryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GET /api/processes/{id}/statement.pdf
func (h *Handler) GetProcessStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proc, err := h.Service.GetProcess(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	emp, err := h.Service.GetEmployee(ctx, proc.EmployeeID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	// Buffered so a render failure can still become a JSON error.
	var buf bytes.Buffer
	if err := statement.Render(&buf, *emp, *proc); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "statement-"+proc.ID+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeDomainError maps service and engine errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case generic.IsClientError(err):
		resp := ErrorResponse{Error: "Invalid argument", Details: err.Error()}
		var argErr *generic.InvalidArgumentError
		if errors.As(err, &argErr) {
			resp.Field = argErr.Field
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
