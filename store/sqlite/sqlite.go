/*
Package sqlite provides a SQLite-backed hrprocess.Store.

PURPOSE:
  Default persistence for the server. A single file holds employees,
  their termination/leave processes and the audit history of every
  status change.

KEY TABLES:
  employees:        Registered employees (salary as decimal TEXT)
  processes:        One row per case; parameters and breakdown as JSON
  process_history:  Append-only status log

ATOMICITY:
  CreateProcess and UpdateProcess write the process row and its history
  entry in one SQL transaction. UpdateProcess is a compare-and-set on
  the status column.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.
  CreateProcess checks for conflicting open processes and inserts under
  the same write lock and transaction.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/severance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := hrprocess.NewService(store, calculation.Default(), logger)

SEE ALSO:
  - hrprocess/store.go: Interface definition
  - store/postgres: Same schema on PostgreSQL
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
	"github.com/warp/severance-engine/store"
)

// Store implements hrprocess.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ hrprocess.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		salary TEXT NOT NULL,
		admission_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_name
		ON employees(name, id);

	CREATE TABLE IF NOT EXISTS processes (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		params_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Newest-first listing per employee
	CREATE INDEX IF NOT EXISTS idx_processes_employee_created
		ON processes(employee_id, created_at DESC);

	-- Append-only
	CREATE TABLE IF NOT EXISTS process_history (
		id TEXT PRIMARY KEY,
		process_id TEXT NOT NULL REFERENCES processes(id),
		from_status TEXT,
		to_status TEXT NOT NULL,
		actor TEXT,
		note TEXT,
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_process_history_process
		ON process_history(process_id, at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp hrprocess.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, salary, admission_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		emp.ID, emp.Name, nullString(emp.Email),
		emp.Salary.String(),
		emp.AdmissionDate.String(),
		store.FormatTime(emp.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("employee %s: %w", emp.ID, generic.ErrDuplicate)
		}
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*hrprocess.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, salary, admission_date, created_at FROM employees WHERE id = ?",
		id,
	)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]hrprocess.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, salary, admission_date, created_at FROM employees ORDER BY name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []hrprocess.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (*hrprocess.Employee, error) {
	var emp hrprocess.Employee
	var email sql.NullString
	var salary, admission, createdAt string

	if err := row.Scan(&emp.ID, &emp.Name, &email, &salary, &admission, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan employee: %w", err)
	}

	var err error
	emp.Email = email.String
	if emp.Salary, err = decimal.NewFromString(salary); err != nil {
		return nil, fmt.Errorf("employee %s: bad salary %q: %w", emp.ID, salary, err)
	}
	if emp.AdmissionDate, err = generic.ParseTimePoint(admission); err != nil {
		return nil, fmt.Errorf("employee %s: %w", emp.ID, err)
	}
	if emp.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return nil, err
	}
	return &emp, nil
}

// =============================================================================
// PROCESSES
// =============================================================================

const processColumns = `id, employee_id, kind, status, params_json, result_json, reason, created_at, updated_at`

// CreateProcess inserts the process and its first history entry atomically.
func (s *Store) CreateProcess(ctx context.Context, p hrprocess.Process, entry hrprocess.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, result, err := store.EncodeProcess(p)
	if err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := checkConflict(ctx, sqlTx, p); err != nil {
		return err
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO processes (`+processColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.EmployeeID, string(p.Kind), string(p.Status),
		string(params), string(result), nullString(p.Reason),
		store.FormatTime(p.CreatedAt), store.FormatTime(p.UpdatedAt),
	)
	if err != nil {
		switch {
		case isUniqueConstraintError(err):
			return fmt.Errorf("process %s: %w", p.ID, generic.ErrDuplicate)
		case isForeignKeyError(err):
			return fmt.Errorf("process %s: %w", p.ID, generic.ErrEmployeeNotFound)
		}
		return fmt.Errorf("failed to insert process: %w", err)
	}

	if err := appendHistory(ctx, sqlTx, entry); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// checkConflict loads the employee's live processes of the same kind inside
// tx and applies Process.Conflict.
func checkConflict(ctx context.Context, tx *sql.Tx, p hrprocess.Process) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+processColumns+`
		FROM processes
		WHERE employee_id = ? AND kind = ? AND status <> ?
	`, p.EmployeeID, string(p.Kind), string(hrprocess.StatusRejected))
	if err != nil {
		return fmt.Errorf("failed to query processes: %w", err)
	}
	defer rows.Close()

	var existing []hrprocess.Process
	for rows.Next() {
		other, err := scanProcess(rows)
		if err != nil {
			return err
		}
		existing = append(existing, *other)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return p.Conflict(existing)
}

// GetProcess retrieves a process by ID.
func (s *Store) GetProcess(ctx context.Context, id string) (*hrprocess.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+processColumns+" FROM processes WHERE id = ?", id)
	p, err := scanProcess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrProcessNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProcesses returns an employee's processes, newest first.
func (s *Store) ListProcesses(ctx context.Context, employeeID string) ([]hrprocess.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+processColumns+`
		FROM processes
		WHERE employee_id = ?
		ORDER BY created_at DESC, id DESC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query processes: %w", err)
	}
	defer rows.Close()

	var processes []hrprocess.Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		processes = append(processes, *p)
	}
	return processes, rows.Err()
}

// UpdateProcess overwrites the process if its stored status still equals
// expected, and appends entry in the same transaction.
func (s *Store) UpdateProcess(ctx context.Context, p hrprocess.Process, expected hrprocess.Status, entry hrprocess.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, result, err := store.EncodeProcess(p)
	if err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx, `
		UPDATE processes
		SET status = ?, params_json = ?, result_json = ?, reason = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`,
		string(p.Status), string(params), string(result), nullString(p.Reason),
		store.FormatTime(p.UpdatedAt),
		p.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update process: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var count int
		if err := sqlTx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM processes WHERE id = ?", p.ID,
		).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return generic.ErrProcessNotFound
		}
		return generic.ErrConcurrentModification
	}

	if err := appendHistory(ctx, sqlTx, entry); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func scanProcess(row scanner) (*hrprocess.Process, error) {
	var p hrprocess.Process
	var kind, status, params, result string
	var reason sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&p.ID, &p.EmployeeID, &kind, &status, &params, &result,
		&reason, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan process: %w", err)
	}

	p.Kind = hrprocess.Kind(kind)
	p.Status = hrprocess.Status(status)
	p.Reason = reason.String
	if err := store.DecodeProcess(&p, []byte(params), []byte(result)); err != nil {
		return nil, err
	}

	var err error
	if p.CreatedAt, err = store.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = store.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// HISTORY
// =============================================================================

func appendHistory(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, e hrprocess.HistoryEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO process_history (id, process_id, from_status, to_status, actor, note, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.ProcessID, nullString(string(e.FromStatus)), string(e.ToStatus),
		nullString(e.Actor), nullString(e.Note), store.FormatTime(e.At),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("history entry %s: %w", e.ID, generic.ErrDuplicate)
		}
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// ListHistory returns a process's entries, oldest first.
func (s *Store) ListHistory(ctx context.Context, processID string) ([]hrprocess.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, process_id, from_status, to_status, actor, note, at
		FROM process_history
		WHERE process_id = ?
		ORDER BY at ASC, rowid ASC
	`, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []hrprocess.HistoryEntry{}
	for rows.Next() {
		var e hrprocess.HistoryEntry
		var from, actor, note sql.NullString
		var to, at string
		if err := rows.Scan(&e.ID, &e.ProcessID, &from, &to, &actor, &note, &at); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.FromStatus = hrprocess.Status(from.String)
		e.ToStatus = hrprocess.Status(to)
		e.Actor = actor.String
		e.Note = note.String
		if e.At, err = store.ParseTime(at); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func isForeignKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
