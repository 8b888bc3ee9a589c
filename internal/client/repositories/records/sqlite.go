package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLiteRepository binds the repository to a database or a transaction.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Get(ctx context.Context, date string) (*models.DayRecord, error) {
	var fields []byte
	err := r.db.QueryRowContext(ctx, `SELECT fields FROM day_records WHERE date = ?`, date).Scan(&fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record[%s]: %w", date, err)
	}

	var rec models.DayRecord
	if err := json.Unmarshal(fields, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode record[%s]: %w", date, err)
	}
	return &rec, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) (models.RecordSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, fields FROM day_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	set := make(models.RecordSet)
	for rows.Next() {
		var date string
		var fields []byte
		if err := rows.Scan(&date, &fields); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		var rec models.DayRecord
		if err := json.Unmarshal(fields, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record[%s]: %w", date, err)
		}
		set[date] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record rows: %w", err)
	}
	return set, nil
}

// Put replaces the whole record stored for date.
func (r *SQLiteRepository) Put(ctx context.Context, date string, rec models.DayRecord) error {
	fields, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record[%s]: %w", date, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO day_records (date, fields, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at
	`, date, fields, r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to put record[%s]: %w", date, err)
	}
	return nil
}
