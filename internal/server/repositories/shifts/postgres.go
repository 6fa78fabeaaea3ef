package shifts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/dbx"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

// PostgresRepository implements shift storage over a dbx.DBTX (*sql.DB or *sql.Tx).
// Enqueue should run inside a transaction so the shift row lock is held
// until the insert commits.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, shift *models.Shift) error {
	query :=
		`INSERT INTO shifts (id, start_time, end_time, shift_date)
		 VALUES ($1, $2, $3, $4::date)
		 `
	_, err := r.db.ExecContext(ctx, query, shift.ID, shift.StartTime, shift.EndTime, shift.ShiftDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Shift, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`SELECT id, start_time, end_time, to_char(shift_date, 'YYYY-MM-DD') FROM shifts
		 WHERE id = $1
		 `
	shift, err := r.scanShift(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return r.withQueue(ctx, shift)
}

func (r *PostgresRepository) SetEndTime(ctx context.Context, id string, end time.Time) (*models.Shift, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`UPDATE shifts SET end_time = $2
		 WHERE id = $1
		 RETURNING id, start_time, end_time, to_char(shift_date, 'YYYY-MM-DD')
		 `
	shift, err := r.scanShift(r.db.QueryRowContext(ctx, query, id, end))
	if err != nil {
		return nil, err
	}
	return r.withQueue(ctx, shift)
}

func (r *PostgresRepository) LatestByDate(ctx context.Context, date string) (*models.Shift, error) {
	query :=
		`SELECT id, start_time, end_time, to_char(shift_date, 'YYYY-MM-DD') FROM shifts
		 WHERE shift_date = $1::date
		 ORDER BY start_time DESC
		 LIMIT 1
		 `
	shift, err := r.scanShift(r.db.QueryRowContext(ctx, query, date))
	if err != nil {
		return nil, err
	}
	return r.withQueue(ctx, shift)
}

func (r *PostgresRepository) Enqueue(ctx context.Context, shiftID string, entry models.QueueEntry, allowClosed bool) error {
	if uuid.Validate(shiftID) != nil {
		return common.ErrorNotFound
	}

	lock :=
		`SELECT end_time FROM shifts
		 WHERE id = $1
		 FOR SHARE
		 `
	var end sql.NullTime
	if err := r.db.QueryRowContext(ctx, lock, shiftID).Scan(&end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	if end.Valid && !allowClosed {
		return common.ErrShiftClosed
	}

	insert :=
		`INSERT INTO shift_queue_entries (shift_id, patient_id, sequence_no)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (shift_id, patient_id) DO NOTHING
		 `
	res, err := r.db.ExecContext(ctx, insert, shiftID, entry.PatientID, entry.SequenceNo)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrAlreadyQueued
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) scanShift(row *sql.Row) (*models.Shift, error) {
	var (
		shift models.Shift
		end   sql.NullTime
	)
	if err := row.Scan(&shift.ID, &shift.StartTime, &end, &shift.ShiftDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if end.Valid {
		t := end.Time
		shift.EndTime = &t
	}
	return &shift, nil
}

func (r *PostgresRepository) withQueue(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	query :=
		`SELECT patient_id, sequence_no FROM shift_queue_entries
		 WHERE shift_id = $1
		 ORDER BY position
		 `
	rows, err := r.db.QueryContext(ctx, query, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	shift.Queue = []models.QueueEntry{}
	for rows.Next() {
		var e models.QueueEntry
		if err := rows.Scan(&e.PatientID, &e.SequenceNo); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		shift.Queue = append(shift.Queue, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return shift, nil
}
