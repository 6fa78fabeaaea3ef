package prescriptions

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

const prescriptionColumns = `id, patient_id, medicine_name, dosage, course_duration, instructions, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Prescription) error {
	if uuid.Validate(p.PatientID) != nil {
		return common.ErrorNotFound
	}

	query :=
		`INSERT INTO prescriptions (id, patient_id, medicine_name, dosage, course_duration, instructions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.PatientID, p.MedicineName, p.Dosage, p.CourseDuration, p.Instructions, p.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Prescription, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + prescriptionColumns + ` FROM prescriptions WHERE id = $1`

	p := &models.Prescription{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.PatientID, &p.MedicineName, &p.Dosage, &p.CourseDuration, &p.Instructions, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Prescription) error {
	if uuid.Validate(p.ID) != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE prescriptions
		 SET medicine_name = $2, dosage = $3, course_duration = $4, instructions = $5
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, p.ID, p.MedicineName, p.Dosage, p.CourseDuration, p.Instructions)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.Prescription, error) {
	if uuid.Validate(patientID) != nil {
		return []*models.Prescription{}, nil
	}

	query :=
		`SELECT ` + prescriptionColumns + ` FROM prescriptions
		 WHERE patient_id = $1
		 ORDER BY created_at DESC
		 `
	return r.selectMany(ctx, query, patientID)
}

func (r *PostgresRepository) ListByPatientBetween(ctx context.Context, patientID string, from, to time.Time) ([]*models.Prescription, error) {
	if uuid.Validate(patientID) != nil {
		return []*models.Prescription{}, nil
	}

	query :=
		`SELECT ` + prescriptionColumns + ` FROM prescriptions
		 WHERE patient_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at DESC
		 `
	return r.selectMany(ctx, query, patientID, from, to)
}

func (r *PostgresRepository) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	if uuid.Validate(patientID) != nil {
		return 0, nil
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Prescription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Prescription{}
	for rows.Next() {
		p := &models.Prescription{}
		if err := rows.Scan(&p.ID, &p.PatientID, &p.MedicineName, &p.Dosage, &p.CourseDuration, &p.Instructions, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
