package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	rec := models.NewSlotRecord(models.SlotDawn, models.StatusOnTime)
	require.NoError(t, r.Put(ctx, "2024-03-01", rec))

	got, err := r.Get(ctx, "2024-03-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, rec.Equal(*got))
}

func TestGet_Absent_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.Get(context.Background(), "2024-03-01")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPut_ReplacesAndStampsUpdatedAt(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	r.now = func() time.Time { return time.UnixMilli(1000) }
	require.NoError(t, r.Put(ctx, "2024-03-01", models.NewVoluntaryRecord(5)))
	r.now = func() time.Time { return time.UnixMilli(2000) }
	require.NoError(t, r.Put(ctx, "2024-03-01", models.NewVoluntaryRecord(8)))

	got, err := r.Get(ctx, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 8, got.VoluntaryUnits())

	var updated int64
	require.NoError(t, db.QueryRow(`SELECT updated_at FROM day_records WHERE date = ?`, "2024-03-01").Scan(&updated))
	assert.Equal(t, int64(2000), updated)
}

func TestGetAll(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	want := models.RecordSet{
		"2024-03-01": models.NewSlotRecord(models.SlotDawn, models.StatusOnTime),
		"2024-03-02": models.NewVoluntaryRecord(2),
	}
	for d, rec := range want {
		require.NoError(t, r.Put(ctx, d, rec))
	}

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got))
}

func TestGetAll_Empty(t *testing.T) {
	got, err := NewSQLiteRepository(setupDB(t)).GetAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGet_CorruptRow(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO day_records(date, fields, updated_at) VALUES ('2024-03-01', 'not json', 0)`)
	require.NoError(t, err)

	r := NewSQLiteRepository(db)
	_, err = r.Get(context.Background(), "2024-03-01")
	require.ErrorContains(t, err, "failed to decode record[2024-03-01]")

	_, err = r.GetAll(context.Background())
	require.Error(t, err)
}

func TestRepository_DriverErrorsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewSQLiteRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT fields FROM day_records").WillReturnError(sql.ErrConnDone)
	_, err = r.Get(ctx, "2024-03-01")
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.ErrorContains(t, err, "failed to get record[2024-03-01]")

	mock.ExpectQuery("SELECT date, fields FROM day_records").WillReturnError(sql.ErrConnDone)
	_, err = r.GetAll(ctx)
	require.ErrorContains(t, err, "failed to list records")

	mock.ExpectExec("INSERT INTO day_records").WillReturnError(sql.ErrConnDone)
	err = r.Put(ctx, "2024-03-01", models.NewVoluntaryRecord(1))
	require.ErrorContains(t, err, "failed to put record[2024-03-01]")

	require.NoError(t, mock.ExpectationsWereMet())
}
