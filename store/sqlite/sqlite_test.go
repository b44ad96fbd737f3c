package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/severance-engine/generic"
	"github.com/warp/severance-engine/hrprocess"
	"github.com/warp/severance-engine/store/sqlite"
	"github.com/warp/severance-engine/store/storetest"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) hrprocess.Store {
		return newStore(t)
	})
}

func TestSQLiteStore_ReopenFile(t *testing.T) {
	// GIVEN: An employee written to a database file
	path := filepath.Join(t.TempDir(), "severance.db")
	s, err := sqlite.New(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, hrprocess.Employee{
		ID:            "e1",
		Name:          "Ana",
		AdmissionDate: generic.NewTimePoint(2023, 1, 15),
	}))
	require.NoError(t, s.Close())

	// WHEN: The file is reopened (migration runs again)
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	// THEN: Data survives and the schema migration is idempotent
	emp, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", emp.Name)
	assert.Empty(t, emp.Email)
	assert.True(t, emp.Salary.IsZero())
}
