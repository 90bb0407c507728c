package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jpmahinay/smashers/models"
	"github.com/lib/pq"
)

var ErrAttendanceNotFound = errors.New("attendance record not found")

type AttendanceRepository interface {
	Upsert(ctx context.Context, day time.Time, presentUserIDs []int) error
	GetByDay(ctx context.Context, day time.Time) (*models.AttendanceRecord, error)
}

type postgresAttendanceRepository struct {
	db *sql.DB
}

func NewPostgresAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &postgresAttendanceRepository{db: db}
}

// Upsert полностью заменяет список присутствующих за день одним
// атомарным запросом, без delete + insert.
func (r *postgresAttendanceRepository) Upsert(ctx context.Context, day time.Time, presentUserIDs []int) error {
	query := `
		INSERT INTO attendance (day, present_user_ids, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (day) DO UPDATE
		SET present_user_ids = EXCLUDED.present_user_ids, updated_at = now()`

	_, err := r.db.ExecContext(ctx, query, day, pq.Array(presentUserIDs))
	if err != nil {
		return fmt.Errorf("failed to upsert attendance for %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}

func (r *postgresAttendanceRepository) GetByDay(ctx context.Context, day time.Time) (*models.AttendanceRecord, error) {
	query := `SELECT day, present_user_ids, updated_at FROM attendance WHERE day = $1`

	record := &models.AttendanceRecord{}
	var ids pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, day).Scan(&record.Day, &ids, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("failed to scan attendance record: %w", err)
	}

	record.PresentUserIDs = make([]int, 0, len(ids))
	for _, id := range ids {
		record.PresentUserIDs = append(record.PresentUserIDs, int(id))
	}
	return record, nil
}
