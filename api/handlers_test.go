/*
handlers_test.go - HTTP tests for the API

Tests for:
- Stateless calculation endpoints
- Employee and process workflow over HTTP
- Error-to-status mapping
- Demo scenarios
*/
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
	"github.com/warp/severance-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := hrprocess.NewService(memory.New(), calculation.Default(), zap.NewNop())
	clock := time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	seq := 0
	svc.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}

	srv := httptest.NewServer(NewRouter(NewHandler(svc, zap.NewNop()), nil))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const anaJSON = `{"id":"emp-ana","name":"Ana Souza","email":"ana@example.com","salary":3000,"admission_date":"2023-01-15"}`

// =============================================================================
// CALCULATIONS
// =============================================================================

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestCalculateTermination(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/calculations/termination",
		`{"salary":"3000","admission_date":"2023-01-15","termination_date":"2024-03-20"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b := decodeBody[calculation.TerminationBreakdown](t, resp)
	assert.Equal(t, "1935.48", b.SalaryBalance.StringFixed(2))
	assert.Equal(t, "313.64", b.Deductions.StringFixed(2))
	assert.Equal(t, "12056.24", b.TotalAmount.StringFixed(2))
	assert.Equal(t, 14, b.MonthsWorked)
}

func TestCalculateLeave(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/calculations/leave",
		`{"salary":3000,"leave_start_date":"2024-01-01","leave_end_date":"2024-01-10","leave_type":"doenca"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b := decodeBody[calculation.LeaveBreakdown](t, resp)
	assert.Equal(t, 10, b.Days)
	assert.Equal(t, "50.00", b.DailyAmount.StringFixed(2))
	assert.Equal(t, "500.00", b.TotalAmount.StringFixed(2))
}

func TestCalculate_Dispatch(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/calculations",
		`{"salary":3000,"leave_start_date":"2024-01-01","leave_end_date":"2024-01-10","leave_type":"ferias"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeBody[calculation.Result](t, resp)
	require.NotNil(t, res.Leave)
	assert.Nil(t, res.Termination)
	assert.Equal(t, "1333.30", res.Leave.TotalAmount.StringFixed(2))
}

func TestCalculate_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{
			name:  "end before start",
			path:  "/api/calculations/leave",
			body:  `{"salary":3000,"leave_start_date":"2024-01-10","leave_end_date":"2024-01-01","leave_type":"doenca"}`,
			field: "leave_end_date",
		},
		{
			name:  "negative salary",
			path:  "/api/calculations/termination",
			body:  `{"salary":-1,"admission_date":"2023-01-15","termination_date":"2024-03-20"}`,
			field: "salary",
		},
		{
			name:  "mixed groups",
			path:  "/api/calculations",
			body:  `{"salary":3000,"admission_date":"2023-01-15","termination_date":"2024-03-20","leave_type":"doenca"}`,
			field: "parameters",
		},
		{
			name:  "neither group",
			path:  "/api/calculations",
			body:  `{"salary":3000}`,
			field: "parameters",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody[ErrorResponse](t, resp)
			assert.Equal(t, tt.field, body.Field)
		})
	}

	resp := do(t, srv, http.MethodPost, "/api/calculations/leave", `{"leave_start_date":"01/01/2024"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "malformed date")

	resp = do(t, srv, http.MethodPost, "/api/calculations/leave", `{`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "malformed json")
}

func TestGetTaxTables(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/tax-tables", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]map[string]any](t, resp)
	assert.Equal(t, "inss", body["inss"]["name"])
	assert.Equal(t, "ir", body["ir"]["name"])
	assert.Len(t, body["ir"]["brackets"], 5)
}

// =============================================================================
// WORKFLOW
// =============================================================================

func TestEmployees(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/employees", anaJSON)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	emp := decodeBody[EmployeeDTO](t, resp)
	assert.Equal(t, "3000.00", emp.Salary)
	assert.Equal(t, "2023-01-15", emp.AdmissionDate.String())

	resp = do(t, srv, http.MethodPost, "/api/employees", anaJSON)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/employees", `{"name":"","salary":1,"admission_date":"2023-01-15"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/employees/emp-ana", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/employees/nobody", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/employees", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]EmployeeDTO](t, resp), 1)
}

func TestTerminationWorkflow(t *testing.T) {
	// GIVEN: A registered employee
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/employees", anaJSON).StatusCode)

	// WHEN: A termination is opened
	resp := do(t, srv, http.MethodPost, "/api/employees/emp-ana/terminations",
		`{"termination_date":"2024-03-20","reason":"dispensa","actor":"rh"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	proc := decodeBody[ProcessDTO](t, resp)

	// THEN: It is pending with the computed breakdown
	assert.Equal(t, hrprocess.StatusPending, proc.Status)
	assert.Equal(t, "12056.24", proc.TotalAmount)
	require.NotNil(t, proc.Termination)

	// Only one open termination per employee
	resp = do(t, srv, http.MethodPost, "/api/employees/emp-ana/terminations", `{"termination_date":"2024-03-21"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Review cannot be skipped
	resp = do(t, srv, http.MethodPost, "/api/processes/"+proc.ID+"/transition", `{"status":"aprovado","actor":"rh"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/processes/"+proc.ID+"/transition", `{"status":"done"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/processes/"+proc.ID+"/transition", `{"status":"em_analise","actor":"rh","note":"ok"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, hrprocess.StatusInReview, decodeBody[ProcessDTO](t, resp).Status)

	// Recalculate without a body
	resp = do(t, srv, http.MethodPost, "/api/processes/"+proc.ID+"/recalculate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "12056.24", decodeBody[ProcessDTO](t, resp).TotalAmount)

	resp = do(t, srv, http.MethodGet, "/api/processes/"+proc.ID+"/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeBody[[]HistoryEntryDTO](t, resp)
	require.Len(t, history, 3)
	assert.Equal(t, hrprocess.StatusInReview, history[1].ToStatus)
	assert.Equal(t, "recalculated: 12056.24 -> 12056.24", history[2].Note)

	resp = do(t, srv, http.MethodGet, "/api/processes/"+proc.ID+"/statement.pdf", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp = do(t, srv, http.MethodGet, "/api/employees/emp-ana/processes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]ProcessDTO](t, resp), 1)
}

func TestRecalculateProcess_BodyOptional(t *testing.T) {
	svc := hrprocess.NewService(memory.New(), calculation.Default(), zap.NewNop())
	ctx := context.Background()
	emp, err := svc.RegisterEmployee(ctx, hrprocess.Employee{
		Name:          "Ana Souza",
		Salary:        decimal.NewFromInt(3000),
		AdmissionDate: generic.NewTimePoint(2023, time.January, 15),
	})
	require.NoError(t, err)
	proc, err := svc.OpenTermination(ctx, emp.ID, generic.NewTimePoint(2024, time.March, 20), "", "rh")
	require.NoError(t, err)
	router := NewRouter(NewHandler(svc, zap.NewNop()), nil)

	tests := []struct {
		name          string
		body          io.Reader
		contentLength int64
		wantStatus    int
	}{
		{"no body", http.NoBody, 0, http.StatusOK},
		{"empty chunked body", strings.NewReader(""), -1, http.StatusOK},
		{"actor only", strings.NewReader(`{"actor":"rh"}`), -1, http.StatusOK},
		{"malformed", strings.NewReader(`{"actor":`), -1, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/processes/"+proc.ID+"/recalculate", tt.body)
			req.ContentLength = tt.contentLength
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestLeaveWorkflow(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/employees", anaJSON).StatusCode)

	resp := do(t, srv, http.MethodPost, "/api/employees/emp-ana/leaves",
		`{"leave_start_date":"2024-01-01","leave_end_date":"2024-01-10","leave_type":"doenca","has_medical_certificate":true}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	proc := decodeBody[ProcessDTO](t, resp)
	require.NotNil(t, proc.Leave)
	assert.Equal(t, "1000.00", proc.TotalAmount)

	resp = do(t, srv, http.MethodPost, "/api/processes/"+proc.ID+"/transition", `{"status":"rejeitado"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/processes/"+proc.ID+"/recalculate", `{"actor":"rh"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "closed process")

	resp = do(t, srv, http.MethodPost, "/api/employees/nobody/leaves",
		`{"leave_start_date":"2024-01-01","leave_end_date":"2024-01-10","leave_type":"doenca"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessNotFound(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/processes/nope", "/api/processes/nope/history", "/api/processes/nope/statement.pdf"} {
		resp := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, resp), len(scenarios))

	for _, s := range scenarios {
		body := `{"scenario_id":"` + s.ID + `"}`
		// Second load is a no-op
		for i := 0; i < 2; i++ {
			resp := do(t, srv, http.MethodPost, "/api/scenarios/load", body)
			assert.Equal(t, http.StatusOK, resp.StatusCode, s.ID)
		}
	}

	resp = do(t, srv, http.MethodGet, "/api/employees/demo-carlos/processes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	procs := decodeBody[[]ProcessDTO](t, resp)
	require.Len(t, procs, 1)
	assert.Equal(t, hrprocess.StatusApproved, procs[0].Status)
	assert.Equal(t, "115662.36", procs[0].TotalAmount)

	resp = do(t, srv, http.MethodGet, "/api/employees/demo-beatriz/processes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]ProcessDTO](t, resp), 3)

	resp = do(t, srv, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
