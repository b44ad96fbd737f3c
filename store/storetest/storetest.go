// Package storetest is a conformance suite run against every
// hrprocess.Store implementation.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/severance-engine/calculation"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
)

var base = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Run exercises newStore with a fresh, empty store per subtest.
func Run(t *testing.T, newStore func(t *testing.T) hrprocess.Store) {
	t.Run("Employees", func(t *testing.T) { testEmployees(t, newStore(t)) })
	t.Run("CreateAndGetProcess", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("CreateProcessUnknownEmployee", func(t *testing.T) { testUnknownEmployee(t, newStore(t)) })
	t.Run("ListProcessesNewestFirst", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("UpdateProcessCompareAndSet", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("CreateProcessConflicts", func(t *testing.T) { testConflicts(t, newStore(t)) })
	t.Run("CreateProcessConcurrentTerminations", func(t *testing.T) { testConcurrentTerminations(t, newStore(t)) })
}

func employee(id, name string) hrprocess.Employee {
	return hrprocess.Employee{
		ID:            id,
		Name:          name,
		Email:         id + "@example.com",
		Salary:        decimal.RequireFromString("3000.50"),
		AdmissionDate: generic.NewTimePoint(2023, time.January, 15),
		CreatedAt:     base,
	}
}

func termination(id, employeeID string, created time.Time) (hrprocess.Process, hrprocess.HistoryEntry) {
	params := calculation.Parameters{
		Salary:          decimal.NewFromInt(3000),
		AdmissionDate:   generic.NewTimePoint(2023, time.January, 15),
		TerminationDate: generic.NewTimePoint(2024, time.March, 20),
	}
	b, err := calculation.CalculateTermination(params)
	if err != nil {
		panic(err)
	}
	p := hrprocess.Process{
		ID:          id,
		EmployeeID:  employeeID,
		Kind:        hrprocess.KindTermination,
		Status:      hrprocess.StatusPending,
		Params:      params,
		Termination: &b,
		Reason:      "dispensa",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	return p, hrprocess.HistoryEntry{
		ID: id + "-h0", ProcessID: id, ToStatus: hrprocess.StatusPending,
		Actor: "rh", Note: "opened", At: created,
	}
}

func leave(id, employeeID string, created time.Time) (hrprocess.Process, hrprocess.HistoryEntry) {
	return leaveBetween(id, employeeID,
		generic.NewTimePoint(2024, time.January, 1), generic.NewTimePoint(2024, time.January, 10), created)
}

func leaveBetween(id, employeeID string, start, end generic.TimePoint, created time.Time) (hrprocess.Process, hrprocess.HistoryEntry) {
	params := calculation.Parameters{
		Salary:         decimal.NewFromInt(3000),
		LeaveStartDate: start,
		LeaveEndDate:   end,
		LeaveType:      calculation.LeaveVacation,
	}
	b, err := calculation.CalculateLeave(params)
	if err != nil {
		panic(err)
	}
	p := hrprocess.Process{
		ID:         id,
		EmployeeID: employeeID,
		Kind:       hrprocess.KindLeave,
		Status:     hrprocess.StatusPending,
		Params:     params,
		Leave:      &b,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	return p, hrprocess.HistoryEntry{
		ID: id + "-h0", ProcessID: id, ToStatus: hrprocess.StatusPending, At: created,
	}
}

func testEmployees(t *testing.T, s hrprocess.Store) {
	ctx := context.Background()

	require.NoError(t, s.SaveEmployee(ctx, employee("e2", "Bruno")))
	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Ana")))
	assert.ErrorIs(t, s.SaveEmployee(ctx, employee("e1", "Ana again")), generic.ErrDuplicate)

	got, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "e1@example.com", got.Email)
	assert.True(t, decimal.RequireFromString("3000.5").Equal(got.Salary))
	assert.True(t, got.AdmissionDate.Equal(generic.NewTimePoint(2023, time.January, 15)))
	assert.True(t, got.CreatedAt.Equal(base))

	_, err = s.GetEmployee(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].Name)
	assert.Equal(t, "Bruno", list[1].Name)
}

func testCreateAndGet(t *testing.T, s hrprocess.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Ana")))

	term, h := termination("p1", "e1", base)
	require.NoError(t, s.CreateProcess(ctx, term, h))
	assert.ErrorIs(t, s.CreateProcess(ctx, term, h), generic.ErrDuplicate)

	got, err := s.GetProcess(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, hrprocess.KindTermination, got.Kind)
	assert.Equal(t, hrprocess.StatusPending, got.Status)
	assert.Equal(t, "dispensa", got.Reason)
	require.NotNil(t, got.Termination)
	assert.Nil(t, got.Leave)
	assert.True(t, term.Termination.TotalAmount.Equal(got.Termination.TotalAmount))
	assert.True(t, term.Termination.INSS.Equal(got.Termination.INSS))
	assert.Equal(t, term.Termination.MonthsWorked, got.Termination.MonthsWorked)
	assert.True(t, got.Params.TerminationDate.Equal(term.Params.TerminationDate))
	assert.True(t, got.CreatedAt.Equal(base))

	lv, h := leave("p2", "e1", base.Add(time.Hour))
	require.NoError(t, s.CreateProcess(ctx, lv, h))
	got, err = s.GetProcess(ctx, "p2")
	require.NoError(t, err)
	require.NotNil(t, got.Leave)
	assert.Nil(t, got.Termination)
	assert.Equal(t, 10, got.Leave.Days)
	assert.Equal(t, calculation.LeaveVacation, got.Params.LeaveType)
	assert.True(t, lv.Leave.TotalAmount.Equal(got.Leave.TotalAmount))

	_, err = s.GetProcess(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrProcessNotFound)

	history, err := s.ListHistory(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, hrprocess.Status(""), history[0].FromStatus)
	assert.Equal(t, "opened", history[0].Note)
}

func testUnknownEmployee(t *testing.T, s hrprocess.Store) {
	term, h := termination("p1", "ghost", base)
	err := s.CreateProcess(context.Background(), term, h)
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)

	_, err = s.GetProcess(context.Background(), "p1")
	assert.ErrorIs(t, err, generic.ErrProcessNotFound, "nothing written")
}

func testListOrder(t *testing.T, s hrprocess.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Ana")))
	require.NoError(t, s.SaveEmployee(ctx, employee("e2", "Bruno")))

	p1, h1 := leave("p1", "e1", base)
	p2, h2 := termination("p2", "e1", base.Add(48*time.Hour))
	p3, h3 := leave("p3", "e2", base.Add(time.Hour))
	for _, c := range []struct {
		p hrprocess.Process
		h hrprocess.HistoryEntry
	}{{p1, h1}, {p2, h2}, {p3, h3}} {
		require.NoError(t, s.CreateProcess(ctx, c.p, c.h))
	}

	list, err := s.ListProcesses(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)
	assert.Equal(t, "p1", list[1].ID)

	list, err = s.ListProcesses(ctx, "e3")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testUpdate(t *testing.T, s hrprocess.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Ana")))
	p, h := termination("p1", "e1", base)
	require.NoError(t, s.CreateProcess(ctx, p, h))

	p.Status = hrprocess.StatusInReview
	p.UpdatedAt = base.Add(time.Hour)
	entry := hrprocess.HistoryEntry{
		ID: "p1-h1", ProcessID: "p1",
		FromStatus: hrprocess.StatusPending, ToStatus: hrprocess.StatusInReview,
		Actor: "rh", At: p.UpdatedAt,
	}
	require.NoError(t, s.UpdateProcess(ctx, p, hrprocess.StatusPending, entry))

	// Stale expectation loses and writes no history
	p.Status = hrprocess.StatusRejected
	stale := entry
	stale.ID = "p1-h2"
	err := s.UpdateProcess(ctx, p, hrprocess.StatusPending, stale)
	assert.ErrorIs(t, err, generic.ErrConcurrentModification)

	got, err := s.GetProcess(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, hrprocess.StatusInReview, got.Status)
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))

	history, err := s.ListHistory(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, hrprocess.StatusPending, history[1].FromStatus)
	assert.Equal(t, hrprocess.StatusInReview, history[1].ToStatus)

	missing := p
	missing.ID = "nope"
	err = s.UpdateProcess(ctx, missing, hrprocess.StatusPending, stale)
	assert.ErrorIs(t, err, generic.ErrProcessNotFound)
}

func testConflicts(t *testing.T, s hrprocess.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Ana")))
	require.NoError(t, s.SaveEmployee(ctx, employee("e2", "Bruno")))

	// One live termination per employee
	p1, h1 := termination("p1", "e1", base)
	require.NoError(t, s.CreateProcess(ctx, p1, h1))
	p2, h2 := termination("p2", "e1", base.Add(time.Minute))
	assert.ErrorIs(t, s.CreateProcess(ctx, p2, h2), generic.ErrDuplicate)
	other, ho := termination("p3", "e2", base.Add(time.Minute))
	require.NoError(t, s.CreateProcess(ctx, other, ho))

	_, err := s.GetProcess(ctx, "p2")
	assert.ErrorIs(t, err, generic.ErrProcessNotFound, "nothing written")

	// Rejecting the first frees the slot
	p1.Status = hrprocess.StatusRejected
	require.NoError(t, s.UpdateProcess(ctx, p1, hrprocess.StatusPending, hrprocess.HistoryEntry{
		ID: "p1-h1", ProcessID: "p1", FromStatus: hrprocess.StatusPending,
		ToStatus: hrprocess.StatusRejected, At: base.Add(2 * time.Minute),
	}))
	require.NoError(t, s.CreateProcess(ctx, p2, h2))

	// Leaves may not overlap, bounds inclusive
	jan := func(d int) generic.TimePoint { return generic.NewTimePoint(2024, time.January, d) }
	l1, lh1 := leaveBetween("l1", "e1", jan(1), jan(10), base)
	require.NoError(t, s.CreateProcess(ctx, l1, lh1))
	l2, lh2 := leaveBetween("l2", "e1", jan(10), jan(15), base)
	assert.ErrorIs(t, s.CreateProcess(ctx, l2, lh2), generic.ErrDuplicate)
	l3, lh3 := leaveBetween("l3", "e1", jan(11), jan(15), base)
	require.NoError(t, s.CreateProcess(ctx, l3, lh3))
	l4, lh4 := leaveBetween("l4", "e2", jan(5), jan(8), base)
	require.NoError(t, s.CreateProcess(ctx, l4, lh4))

	list, err := s.ListProcesses(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func testConcurrentTerminations(t *testing.T, s hrprocess.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Ana")))

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, h := termination(fmt.Sprintf("p%d", i), "e1", base.Add(time.Duration(i)*time.Second))
			errs[i] = s.CreateProcess(ctx, p, h)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, generic.ErrDuplicate)
	}
	assert.Equal(t, 1, created)

	list, err := s.ListProcesses(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
