package patients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/dbx"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

const patientColumns = `id, first_name, last_name, phone, dob, address, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Patient) error {
	query :=
		`INSERT INTO patients (id, first_name, last_name, phone, dob, address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `
	_, err := r.db.ExecContext(ctx, query, p.ID, p.FirstName, p.LastName, p.Phone, p.DOB, p.Address, p.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrDuplicatePhone
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Patient, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	p := &models.Patient{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.DOB, &p.Address, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at DESC`
	return r.selectMany(ctx, query)
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Patient) error {
	if uuid.Validate(p.ID) != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE patients
		 SET first_name = $2, last_name = $3, phone = $4, dob = $5, address = $6
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, p.ID, p.FirstName, p.LastName, p.Phone, p.DOB, p.Address)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrDuplicatePhone
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) SearchByName(ctx context.Context, firstName, lastName string) ([]*models.Patient, error) {
	query :=
		`SELECT ` + patientColumns + ` FROM patients
		 WHERE first_name ILIKE $1 ESCAPE '\' AND last_name ILIKE $2 ESCAPE '\'
		 ORDER BY created_at DESC
		 `
	return r.selectMany(ctx, query, containsPattern(firstName), containsPattern(lastName))
}

func (r *PostgresRepository) SearchByAddress(ctx context.Context, address string) ([]*models.Patient, error) {
	query :=
		`SELECT ` + patientColumns + ` FROM patients
		 WHERE address ILIKE $1 ESCAPE '\'
		 ORDER BY created_at DESC
		 `
	return r.selectMany(ctx, query, containsPattern(address))
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.Patient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Patient{}
	for rows.Next() {
		p := &models.Patient{}
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.DOB, &p.Address, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// containsPattern turns user input into an ILIKE substring pattern with
// LIKE metacharacters escaped. Empty input matches everything.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
