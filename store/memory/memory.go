// Package memory provides an in-memory hrprocess.Store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[string]hrprocess.Employee
	processes map[string]hrprocess.Process
	history   map[string][]hrprocess.HistoryEntry
}

var _ hrprocess.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		employees: make(map[string]hrprocess.Employee),
		processes: make(map[string]hrprocess.Process),
		history:   make(map[string][]hrprocess.HistoryEntry),
	}
}

func (m *Memory) SaveEmployee(_ context.Context, e hrprocess.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[e.ID]; ok {
		return generic.ErrDuplicate
	}
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id string) (*hrprocess.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return nil, generic.ErrEmployeeNotFound
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]hrprocess.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]hrprocess.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *Memory) CreateProcess(_ context.Context, p hrprocess.Process, entry hrprocess.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.processes[p.ID]; ok {
		return generic.ErrDuplicate
	}
	if _, ok := m.employees[p.EmployeeID]; !ok {
		return generic.ErrEmployeeNotFound
	}
	var existing []hrprocess.Process
	for _, other := range m.processes {
		if other.EmployeeID == p.EmployeeID {
			existing = append(existing, other)
		}
	}
	if err := p.Conflict(existing); err != nil {
		return err
	}
	m.processes[p.ID] = clone(p)
	m.history[p.ID] = append(m.history[p.ID], entry)
	return nil
}

func (m *Memory) GetProcess(_ context.Context, id string) (*hrprocess.Process, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.processes[id]
	if !ok {
		return nil, generic.ErrProcessNotFound
	}
	c := clone(p)
	return &c, nil
}

func (m *Memory) ListProcesses(_ context.Context, employeeID string) ([]hrprocess.Process, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []hrprocess.Process
	for _, p := range m.processes {
		if p.EmployeeID == employeeID {
			result = append(result, clone(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) UpdateProcess(_ context.Context, p hrprocess.Process, expected hrprocess.Status, entry hrprocess.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.processes[p.ID]
	if !ok {
		return generic.ErrProcessNotFound
	}
	if current.Status != expected {
		return generic.ErrConcurrentModification
	}
	m.processes[p.ID] = clone(p)
	m.history[p.ID] = append(m.history[p.ID], entry)
	return nil
}

func (m *Memory) ListHistory(_ context.Context, processID string) ([]hrprocess.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]hrprocess.HistoryEntry, len(m.history[processID]))
	copy(result, m.history[processID])
	return result, nil
}

// clone detaches the breakdown pointers from the caller's copy.
func clone(p hrprocess.Process) hrprocess.Process {
	if p.Termination != nil {
		b := *p.Termination
		p.Termination = &b
	}
	if p.Leave != nil {
		b := *p.Leave
		p.Leave = &b
	}
	return p
}
