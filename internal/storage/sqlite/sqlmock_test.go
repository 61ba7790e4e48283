package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := newWithDB(context.Background(), db)
	require.NoError(t, err)
	return store, mock
}

func TestCreatePayment_RollsBackOnInsertFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE trips SET version = version \\+ 1").
		WithArgs("trip-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := store.CreatePayment(context.Background(), &models.Payment{
		TripID: "trip-1",
		From:   "bob",
		To:     "alice",
		Amount: 500,
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert payment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePayment_UnknownTrip(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE trips SET version = version \\+ 1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	err := store.CreatePayment(context.Background(), &models.Payment{
		TripID: "missing",
		From:   "bob",
		To:     "alice",
		Amount: 500,
	})
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveTrip_NoRowsAffected(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE trips SET is_archived = 1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.ArchiveTrip(context.Background(), "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
