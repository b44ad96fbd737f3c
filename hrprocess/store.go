package hrprocess

import "context"

// Store persists employees, processes and their history.
//
// Implementations:
//   - store/sqlite: embedded default
//   - store/postgres: pgx-backed
//   - store/memory: tests and dev
type Store interface {
	// SaveEmployee inserts an employee. Returns generic.ErrDuplicate if the
	// id is taken.
	SaveEmployee(ctx context.Context, e Employee) error

	// GetEmployee returns generic.ErrEmployeeNotFound when missing.
	GetEmployee(ctx context.Context, id string) (*Employee, error)

	// ListEmployees returns all employees ordered by name.
	ListEmployees(ctx context.Context) ([]Employee, error)

	// CreateProcess inserts the process and its creation entry atomically.
	// It rejects, with generic.ErrDuplicate, a process that conflicts with
	// the employee's open ones (see Process.Conflict). The check and the
	// insert happen in one write so concurrent opens cannot both succeed.
	CreateProcess(ctx context.Context, p Process, entry HistoryEntry) error

	// GetProcess returns generic.ErrProcessNotFound when missing.
	GetProcess(ctx context.Context, id string) (*Process, error)

	// ListProcesses returns an employee's processes, newest first.
	ListProcesses(ctx context.Context, employeeID string) ([]Process, error)

	// UpdateProcess overwrites status, params and results if the stored
	// status still equals expected, and appends entry in the same write.
	// Returns generic.ErrConcurrentModification otherwise.
	UpdateProcess(ctx context.Context, p Process, expected Status, entry HistoryEntry) error

	// ListHistory returns a process's entries, oldest first.
	ListHistory(ctx context.Context, processID string) ([]HistoryEntry, error)
}
