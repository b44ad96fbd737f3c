/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	employees and processes through the regular service, so every
	record carries a real breakdown and history.

AVAILABLE SCENARIOS:

	dismissal:    Mid-tenure dismissal, in review
	high-salary:  Long tenure above the INSS ceiling, approved
	leaves:       Sickness without certificate, vacation, maternity

HOW SCENARIOS WORK:
 1. Register the scenario's employees (fixed ids)
 2. Open processes
 3. Walk some of them through review

Loading a scenario twice is a no-op: employees that already exist are
left untouched and their processes are not reopened.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "dismissal"}

SEE ALSO:
  - handlers.go: Service wiring
  - hrprocess/service.go: Operations used by the loaders
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
	"go.uber.org/zap"
)

const scenarioActor = "demo"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "dismissal",
		Name:        "Dismissal",
		Description: "R$ 3.000 salary, 14 months of tenure, termination under review",
	},
	{
		ID:          "high-salary",
		Name:        "High Salary",
		Description: "R$ 10.000 salary above the INSS ceiling, 49 months, approved",
	},
	{
		ID:          "leaves",
		Name:        "Leaves",
		Description: "Sickness leave without certificate, vacation at 4/3, maternity",
	},
}

var scenarioLoaders = map[string]func(h *Handler, ctx context.Context) error{
	"dismissal":   (*Handler).loadDismissalScenario,
	"high-salary": (*Handler).loadHighSalaryScenario,
	"leaves":      (*Handler).loadLeavesScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}
	if err := load(h, r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// ensureEmployee registers emp unless it already exists. created reports
// whether this call registered it.
func (h *Handler) ensureEmployee(ctx context.Context, emp hrprocess.Employee) (created bool, err error) {
	_, err = h.Service.RegisterEmployee(ctx, emp)
	if errors.Is(err, generic.ErrDuplicate) {
		return false, nil
	}
	return err == nil, err
}

func (h *Handler) loadDismissalScenario(ctx context.Context) error {
	created, err := h.ensureEmployee(ctx, hrprocess.Employee{
		ID:            "demo-ana",
		Name:          "Ana Souza",
		Email:         "ana.souza@example.com",
		Salary:        decimal.NewFromInt(3000),
		AdmissionDate: generic.NewTimePoint(2023, time.January, 15),
	})
	if err != nil || !created {
		return err
	}

	proc, err := h.Service.OpenTermination(ctx, "demo-ana",
		generic.NewTimePoint(2024, time.March, 20), "Dispensa sem justa causa", scenarioActor)
	if err != nil {
		return err
	}
	_, err = h.Service.Transition(ctx, proc.ID, hrprocess.StatusInReview, scenarioActor, "conferência de valores")
	return err
}

func (h *Handler) loadHighSalaryScenario(ctx context.Context) error {
	created, err := h.ensureEmployee(ctx, hrprocess.Employee{
		ID:            "demo-carlos",
		Name:          "Carlos Lima",
		Email:         "carlos.lima@example.com",
		Salary:        decimal.NewFromInt(10000),
		AdmissionDate: generic.NewTimePoint(2020, time.January, 1),
	})
	if err != nil || !created {
		return err
	}

	proc, err := h.Service.OpenTermination(ctx, "demo-carlos",
		generic.NewTimePoint(2024, time.February, 29), "Acordo entre as partes", scenarioActor)
	if err != nil {
		return err
	}
	for _, to := range []hrprocess.Status{hrprocess.StatusInReview, hrprocess.StatusApproved} {
		if _, err := h.Service.Transition(ctx, proc.ID, to, scenarioActor, ""); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadLeavesScenario(ctx context.Context) error {
	created, err := h.ensureEmployee(ctx, hrprocess.Employee{
		ID:            "demo-beatriz",
		Name:          "Beatriz Rocha",
		Email:         "beatriz.rocha@example.com",
		Salary:        decimal.NewFromInt(3000),
		AdmissionDate: generic.NewTimePoint(2021, time.June, 1),
	})
	if err != nil || !created {
		return err
	}

	leaves := []struct {
		req    hrprocess.LeaveRequest
		reason string
	}{
		{
			req: hrprocess.LeaveRequest{
				Start: generic.NewTimePoint(2024, time.January, 1),
				End:   generic.NewTimePoint(2024, time.January, 10),
				Type:  calculation.LeaveSickness,
			},
			reason: "Atestado não apresentado",
		},
		{
			req: hrprocess.LeaveRequest{
				Start: generic.NewTimePoint(2024, time.July, 1),
				End:   generic.NewTimePoint(2024, time.July, 30),
				Type:  calculation.LeaveVacation,
			},
			reason: "Férias anuais",
		},
		{
			req: hrprocess.LeaveRequest{
				Start: generic.NewTimePoint(2024, time.September, 2),
				End:   generic.NewTimePoint(2025, time.January, 29),
				Type:  calculation.LeaveMaternity,
			},
			reason: "Licença-maternidade",
		},
	}
	for _, l := range leaves {
		if _, err := h.Service.OpenLeave(ctx, "demo-beatriz", l.req, l.reason, scenarioActor); err != nil {
			return err
		}
	}
	return nil
}
