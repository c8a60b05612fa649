package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	original := DB
	DB = mockDB

	return mock, func() {
		DB = original
		_ = mockDB.Close()
	}
}

func TestSummarySchedulerRefresh(t *testing.T) {
	mock, cleanup := withMockDB(t)
	defer cleanup()

	mock.ExpectExec("REFRESH MATERIALIZED VIEW CONCURRENTLY contact_summary_stats").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ss := NewSummaryScheduler(time.Minute)
	ss.refresh()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummarySchedulerRefreshError(t *testing.T) {
	mock, cleanup := withMockDB(t)
	defer cleanup()

	mock.ExpectExec("REFRESH MATERIALIZED VIEW CONCURRENTLY contact_summary_stats").
		WillReturnError(assert.AnError)

	ss := NewSummaryScheduler(time.Minute)
	// Must not panic on refresh failure; the next tick retries.
	ss.refresh()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSummarySchedulerDefaultsInterval(t *testing.T) {
	ss := NewSummaryScheduler(0)
	assert.Equal(t, time.Minute, ss.interval)
}

func TestSummarySchedulerStop(t *testing.T) {
	mock, cleanup := withMockDB(t)
	defer cleanup()

	mock.ExpectExec("REFRESH MATERIALIZED VIEW CONCURRENTLY contact_summary_stats").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ss := NewSummaryScheduler(time.Hour)
	ss.Start()

	// Give the initial refresh a moment to run before stopping.
	time.Sleep(50 * time.Millisecond)
	ss.Stop()

	require.NoError(t, mock.ExpectationsWereMet())
}
