package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB wires a sqlmock connection behind GORM's postgres dialect so the
// exact write path can be scripted.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// TestAssignCollector_ConcurrentWriteConflict scripts the race the version
// token exists for: another writer bumps the bin between our read and our
// update, the conditional update matches zero rows, and the operation rolls
// back with a Conflict instead of clobbering the other write.
func TestAssignCollector_ConcurrentWriteConflict(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	binID := uuid.New()
	collectorID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "bins"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "location", "city", "status", "reported_at", "version"}).
			AddRow(binID.String(), "Main St", "Colombo", "Pending", now, int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "collectors"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city", "status", "version"}).
			AddRow(collectorID.String(), "X", "Colombo", "active", int64(0)))
	// The concurrent writer already advanced version past 3.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bins"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.AssignCollector(context.Background(), binID, collectorID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDeleteCollector_ReleaseFailureRollsBack verifies that a failed bin
// release aborts the whole delete: no collector row disappears while its
// worklist is still attached.
func TestDeleteCollector_ReleaseFailureRollsBack(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB)

	collectorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "collectors"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city", "status", "version"}).
			AddRow(collectorID.String(), "X", "Colombo", "active", int64(0)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bins"`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.DeleteCollector(context.Background(), collectorID)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
