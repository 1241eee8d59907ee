package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) WorkedShifts(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Shift, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT shift
		FROM work_shifts
		WHERE doctor_id = $1 AND work_date = $2
		ORDER BY shift
	`, doctorID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []Shift
	for rows.Next() {
		var s Shift
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}

	return shifts, rows.Err()
}

func (r *PgRepository) HasWorkedShift(ctx context.Context, doctorID uuid.UUID, day time.Time, shift Shift) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM work_shifts
			WHERE doctor_id = $1 AND work_date = $2 AND shift = $3
		)
	`, doctorID, day, shift).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) ShiftWindows(ctx context.Context, month string) (map[Shift]Window, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT shift, start_min, end_min
		FROM shift_windows
		WHERE month = $1
	`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make(map[Shift]Window)
	for rows.Next() {
		var s Shift
		var w Window
		if err := rows.Scan(&s, &w.StartMin, &w.EndMin); err != nil {
			return nil, err
		}
		windows[s] = w
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(windows) == 0 {
		return nil, ErrNoShiftWindows
	}

	return windows, nil
}
