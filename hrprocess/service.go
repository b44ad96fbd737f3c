package hrprocess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/generic"
)

// =============================================================================
// SERVICE - Orchestrates the process lifecycle
// =============================================================================

type Service struct {
	store  Store
	engine calculation.Engine
	logger *zap.Logger

	// Overridable in tests.
	Now   func() time.Time
	NewID func() string
}

func NewService(store Store, engine calculation.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		engine: engine,
		logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// Engine exposes the engine in use.
func (s *Service) Engine() calculation.Engine {
	return s.engine
}

// Simulate runs the engine without persisting anything.
func (s *Service) Simulate(p calculation.Parameters) (calculation.Result, error) {
	return s.engine.Calculate(p)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// RegisterEmployee validates and stores an employee, assigning an id when
// none is given. Salaries are stored exactly, so they must be whole centavos.
func (s *Service) RegisterEmployee(ctx context.Context, e Employee) (*Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.TrimSpace(strings.ToLower(e.Email))
	switch {
	case e.Name == "":
		return nil, generic.InvalidArgument("name", "required")
	case e.Salary.IsNegative():
		return nil, generic.InvalidArgument("salary", "must not be negative")
	case !e.Salary.Equal(generic.RoundCents(e.Salary)):
		return nil, generic.InvalidArgument("salary", "must be in whole centavos")
	case e.AdmissionDate.IsZero():
		return nil, generic.InvalidArgument("admission_date", "required")
	}
	if e.ID == "" {
		e.ID = s.NewID()
	}
	e.CreatedAt = s.Now()

	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("employee registered", zap.String("employee_id", e.ID))
	return &e, nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

// =============================================================================
// OPENING PROCESSES
// =============================================================================

// OpenTermination computes the severance for an employee and records it as
// a pending process. An employee can have only one open termination; the
// store enforces it.
func (s *Service) OpenTermination(ctx context.Context, employeeID string, terminationDate generic.TimePoint, reason, actor string) (*Process, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	params := calculation.Parameters{
		Salary:          emp.Salary,
		AdmissionDate:   emp.AdmissionDate,
		TerminationDate: terminationDate,
	}
	breakdown, err := s.engine.CalculateTermination(params)
	if err != nil {
		return nil, err
	}

	proc := s.newProcess(emp.ID, KindTermination, params, reason)
	proc.Termination = &breakdown
	return s.create(ctx, proc, actor)
}

// OpenLeave computes the leave payment and records it as a pending process.
// Leaves of one employee may not overlap unless the earlier one was rejected;
// the store enforces it.
func (s *Service) OpenLeave(ctx context.Context, employeeID string, req LeaveRequest, reason, actor string) (*Process, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	params := calculation.Parameters{
		Salary:                emp.Salary,
		AdmissionDate:         emp.AdmissionDate,
		LeaveStartDate:        req.Start,
		LeaveEndDate:          req.End,
		LeaveType:             req.Type,
		HasMedicalCertificate: req.HasMedicalCertificate,
	}
	if !req.Start.IsZero() && req.Start.Before(emp.AdmissionDate) {
		return nil, generic.InvalidArgument("leave_start_date", "must not be before admission_date")
	}
	breakdown, err := s.engine.CalculateLeave(params)
	if err != nil {
		return nil, err
	}

	proc := s.newProcess(emp.ID, KindLeave, params, reason)
	proc.Leave = &breakdown
	return s.create(ctx, proc, actor)
}

func (s *Service) newProcess(employeeID string, kind Kind, params calculation.Parameters, reason string) Process {
	now := s.Now()
	return Process{
		ID:         s.NewID(),
		EmployeeID: employeeID,
		Kind:       kind,
		Status:     StatusPending,
		Params:     params,
		Reason:     strings.TrimSpace(reason),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *Service) create(ctx context.Context, proc Process, actor string) (*Process, error) {
	entry := HistoryEntry{
		ID:        s.NewID(),
		ProcessID: proc.ID,
		ToStatus:  proc.Status,
		Actor:     actor,
		Note:      "opened",
		At:        proc.CreatedAt,
	}
	if err := s.store.CreateProcess(ctx, proc, entry); err != nil {
		return nil, err
	}

	s.logger.Info("process opened",
		zap.String("process_id", proc.ID),
		zap.String("employee_id", proc.EmployeeID),
		zap.String("kind", string(proc.Kind)),
		zap.String("total_amount", proc.TotalAmount().StringFixed(2)),
	)
	return &proc, nil
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func (s *Service) GetProcess(ctx context.Context, id string) (*Process, error) {
	return s.store.GetProcess(ctx, id)
}

// ListProcesses returns an employee's processes; the employee must exist.
func (s *Service) ListProcesses(ctx context.Context, employeeID string) ([]Process, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListProcesses(ctx, employeeID)
}

func (s *Service) History(ctx context.Context, processID string) ([]HistoryEntry, error) {
	if _, err := s.store.GetProcess(ctx, processID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, processID)
}

// Transition moves a process to a new status.
func (s *Service) Transition(ctx context.Context, processID string, to Status, actor, note string) (*Process, error) {
	proc, err := s.store.GetProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	from := proc.Status
	if !CanTransition(from, to) {
		return nil, &generic.TransitionError{From: string(from), To: string(to)}
	}

	proc.Status = to
	proc.UpdatedAt = s.Now()
	entry := HistoryEntry{
		ID:         s.NewID(),
		ProcessID:  proc.ID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Note:       note,
		At:         proc.UpdatedAt,
	}
	if err := s.store.UpdateProcess(ctx, *proc, from, entry); err != nil {
		return nil, err
	}

	s.logger.Info("process transitioned",
		zap.String("process_id", proc.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor),
	)
	return proc, nil
}

// Recalculate reruns the engine with the employee's current salary and the
// engine's current tables. Only open processes can be recalculated.
func (s *Service) Recalculate(ctx context.Context, processID, actor string) (*Process, error) {
	proc, err := s.store.GetProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	if !proc.Status.IsOpen() {
		return nil, &generic.TransitionError{From: string(proc.Status), To: string(proc.Status)}
	}
	emp, err := s.store.GetEmployee(ctx, proc.EmployeeID)
	if err != nil {
		return nil, err
	}

	params := proc.Params
	params.Salary = emp.Salary
	params.AdmissionDate = emp.AdmissionDate

	before := proc.TotalAmount()
	switch proc.Kind {
	case KindTermination:
		b, err := s.engine.CalculateTermination(params)
		if err != nil {
			return nil, err
		}
		proc.Termination = &b
	case KindLeave:
		b, err := s.engine.CalculateLeave(params)
		if err != nil {
			return nil, err
		}
		proc.Leave = &b
	default:
		return nil, fmt.Errorf("process %s has unknown kind %q", proc.ID, proc.Kind)
	}
	proc.Params = params
	proc.UpdatedAt = s.Now()

	entry := HistoryEntry{
		ID:         s.NewID(),
		ProcessID:  proc.ID,
		FromStatus: proc.Status,
		ToStatus:   proc.Status,
		Actor:      actor,
		Note:       fmt.Sprintf("recalculated: %s -> %s", before.StringFixed(2), proc.TotalAmount().StringFixed(2)),
		At:         proc.UpdatedAt,
	}
	if err := s.store.UpdateProcess(ctx, *proc, proc.Status, entry); err != nil {
		return nil, err
	}
	return proc, nil
}
