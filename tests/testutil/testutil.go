// Package testutil provides shared helpers for tests that need a mocked
// database or an HTTP round trip against a gin engine.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockDB wraps a GORM connection backed by sqlmock.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a GORM connection backed by sqlmock. The configuration
// matches the production connection: no implicit per-statement transactions,
// so expectations line up one to one with repository calls.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "failed to open gorm over sqlmock")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// Close closes the underlying connection.
func (m *MockDB) Close() {
	m.SqlDB.Close()
}

// ExpectationsWereMet asserts every registered expectation was consumed.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet())
}

// UUIDPtr returns a pointer to the given UUID, handy for filter structs.
func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
