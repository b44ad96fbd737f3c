/*
Package postgres provides a PostgreSQL-backed hrprocess.Store on pgx.

Same tables as store/sqlite, with native column types:
  salary NUMERIC, admission_date DATE, timestamps TIMESTAMPTZ and the
  process parameters/breakdown as JSONB.

Migrations are embedded SQL files applied in name order and recorded in
schema_migrations.
*/
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
	"github.com/warp/severance-engine/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ hrprocess.Store = (*Store)(nil)

// Open connects to databaseURL, pings, and applies pending migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	poolCfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. The schema must already be migrated.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() {
	s.pool.Close()
}

// Truncate empties every table. Test helper.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE process_history, processes, employees")
	return err
}

// Migrate applies every embedded migration not yet recorded.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx,
		"CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())",
	); err != nil {
		return err
	}

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		version := strings.TrimSuffix(strings.TrimPrefix(file, "migrations/"), ".sql")

		var count int
		if err := s.pool.QueryRow(ctx,
			"SELECT COUNT(1) FROM schema_migrations WHERE version = $1", version,
		).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		sqlBytes, err := migrations.ReadFile(file)
		if err != nil {
			return err
		}

		tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %s failed: %w", version, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, COALESCE(email, ''), salary::text, admission_date::text, created_at`

func (s *Store) SaveEmployee(ctx context.Context, emp hrprocess.Employee) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO employees (id, name, email, salary, admission_date, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4::text::numeric, $5::text::date, $6)
	`, emp.ID, emp.Name, emp.Email, emp.Salary.String(), emp.AdmissionDate.String(), emp.CreatedAt.UTC())
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return fmt.Errorf("employee %s: %w", emp.ID, generic.ErrDuplicate)
		}
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*hrprocess.Employee, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, generic.ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]hrprocess.Employee, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY name, id")
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

func scanEmployee(row pgx.Row) (*hrprocess.Employee, error) {
	var emp hrprocess.Employee
	var salary, admission string
	if err := row.Scan(&emp.ID, &emp.Name, &emp.Email, &salary, &admission, &emp.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if emp.Salary, err = decimal.NewFromString(salary); err != nil {
		return nil, fmt.Errorf("employee %s: bad salary %q: %w", emp.ID, salary, err)
	}
	if emp.AdmissionDate, err = generic.ParseTimePoint(admission); err != nil {
		return nil, fmt.Errorf("employee %s: %w", emp.ID, err)
	}
	emp.CreatedAt = emp.CreatedAt.UTC()
	return &emp, nil
}

// =============================================================================
// PROCESSES
// =============================================================================

const processColumns = `id, employee_id, kind, status, params_json::text, result_json::text, COALESCE(reason, ''), created_at, updated_at`

func (s *Store) CreateProcess(ctx context.Context, p hrprocess.Process, entry hrprocess.HistoryEntry) error {
	params, result, err := store.EncodeProcess(p)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := checkConflict(ctx, tx, p); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO processes (id, employee_id, kind, status, params_json, result_json, reason, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5::text::jsonb, $6::text::jsonb, NULLIF($7, ''), $8, $9)
		`, p.ID, p.EmployeeID, string(p.Kind), string(p.Status), string(params), string(result),
			p.Reason, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
		if err != nil {
			switch pgCode(err) {
			case codeUniqueViolation:
				return fmt.Errorf("process %s: %w", p.ID, generic.ErrDuplicate)
			case codeForeignKeyViolation:
				return fmt.Errorf("process %s: %w", p.ID, generic.ErrEmployeeNotFound)
			}
			return fmt.Errorf("failed to insert process: %w", err)
		}
		return appendHistory(ctx, tx, entry)
	})
}

// checkConflict locks the employee row, serializing concurrent opens for the
// same employee, then applies Process.Conflict to their live processes. The
// partial unique index on open terminations backs this up.
func checkConflict(ctx context.Context, tx pgx.Tx, p hrprocess.Process) error {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM employees WHERE id = $1 FOR UPDATE", p.EmployeeID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("process %s: %w", p.ID, generic.ErrEmployeeNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock employee: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT `+processColumns+`
		FROM processes
		WHERE employee_id = $1 AND kind = $2 AND status <> $3
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

func (s *Store) GetProcess(ctx context.Context, id string) (*hrprocess.Process, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+processColumns+" FROM processes WHERE id = $1", id)
	p, err := scanProcess(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, generic.ErrProcessNotFound
	}
	return p, err
}

func (s *Store) ListProcesses(ctx context.Context, employeeID string) ([]hrprocess.Process, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+processColumns+`
		FROM processes
		WHERE employee_id = $1
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

func (s *Store) UpdateProcess(ctx context.Context, p hrprocess.Process, expected hrprocess.Status, entry hrprocess.HistoryEntry) error {
	params, result, err := store.EncodeProcess(p)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE processes
			SET status = $1, params_json = $2::text::jsonb, result_json = $3::text::jsonb,
			    reason = NULLIF($4, ''), updated_at = $5
			WHERE id = $6 AND status = $7
		`, string(p.Status), string(params), string(result), p.Reason, p.UpdatedAt.UTC(),
			p.ID, string(expected))
		if err != nil {
			return fmt.Errorf("failed to update process: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM processes WHERE id = $1)", p.ID,
			).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return generic.ErrProcessNotFound
			}
			return generic.ErrConcurrentModification
		}
		return appendHistory(ctx, tx, entry)
	})
}

func scanProcess(row pgx.Row) (*hrprocess.Process, error) {
	var p hrprocess.Process
	var kind, status, params, result string
	if err := row.Scan(&p.ID, &p.EmployeeID, &kind, &status, &params, &result,
		&p.Reason, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Kind = hrprocess.Kind(kind)
	p.Status = hrprocess.Status(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if err := store.DecodeProcess(&p, []byte(params), []byte(result)); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// HISTORY
// =============================================================================

func appendHistory(ctx context.Context, tx pgx.Tx, e hrprocess.HistoryEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO process_history (id, process_id, from_status, to_status, actor, note, at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7)
	`, e.ID, e.ProcessID, string(e.FromStatus), string(e.ToStatus), e.Actor, e.Note, e.At.UTC())
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return fmt.Errorf("history entry %s: %w", e.ID, generic.ErrDuplicate)
		}
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *Store) ListHistory(ctx context.Context, processID string) ([]hrprocess.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, process_id, COALESCE(from_status, ''), to_status,
		       COALESCE(actor, ''), COALESCE(note, ''), at
		FROM process_history
		WHERE process_id = $1
		ORDER BY at ASC, seq ASC
	`, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []hrprocess.HistoryEntry{}
	for rows.Next() {
		var e hrprocess.HistoryEntry
		var from, to string
		if err := rows.Scan(&e.ID, &e.ProcessID, &from, &to, &e.Actor, &e.Note, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.FromStatus = hrprocess.Status(from)
		e.ToStatus = hrprocess.Status(to)
		e.At = e.At.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
