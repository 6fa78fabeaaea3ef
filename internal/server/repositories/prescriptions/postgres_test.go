package prescriptions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rxID      = "0d9a3b8e-2f64-4bb9-8f3e-6c8e2e1b7d55"
	patientID = "3c8f0b0e-6a55-4f0f-9f8a-52f1cbd4c1aa"
)

var (
	columns       = []string{"id", "patient_id", "medicine_name", "dosage", "course_duration", "instructions", "created_at"}
	insertQuery   = `(?s)^INSERT\s+INTO\s+prescriptions\s*\(id,\s*patient_id,.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*$`
	selectOne     = `(?s)^SELECT\s+id,.*FROM\s+prescriptions\s+WHERE\s+id\s*=\s*\$1$`
	updateQuery   = `(?s)^UPDATE\s+prescriptions\s+SET\s+medicine_name\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1\s*$`
	deleteOne     = `^DELETE\s+FROM\s+prescriptions\s+WHERE\s+id\s*=\s*\$1$`
	deleteByOwner = `^DELETE\s+FROM\s+prescriptions\s+WHERE\s+patient_id\s*=\s*\$1$`
	listByOwner   = `(?s)^SELECT\s+id,.*FROM\s+prescriptions\s+WHERE\s+patient_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s*$`
	listBetween   = `(?s)^SELECT\s+id,.*WHERE\s+patient_id\s*=\s*\$1\s+AND\s+created_at\s*>=\s*\$2\s+AND\s+created_at\s*<\s*\$3\s+ORDER\s+BY\s+created_at\s+DESC\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func sample() *models.Prescription {
	return &models.Prescription{
		ID:             rxID,
		PatientID:      patientID,
		MedicineName:   "Amoxicillin",
		Dosage:         "500mg 3x/day",
		CourseDuration: "7 days",
		CreatedAt:      time.Date(2025, 5, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	p := sample()
	mock.ExpectExec(insertQuery).
		WithArgs(p.ID, p.PatientID, p.MedicineName, p.Dosage, p.CourseDuration, "", p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UnknownPatient(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(insertQuery).WillReturnError(&pgconn.PgError{Code: "23503"})

	assert.ErrorIs(t, repo.Create(context.Background(), sample()), common.ErrorNotFound)

	p := sample()
	p.PatientID = "nope"
	assert.ErrorIs(t, repo.Create(context.Background(), p), common.ErrorNotFound)
}

func TestGet(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	p := sample()
	mock.ExpectQuery(selectOne).WithArgs(rxID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(p.ID, p.PatientID, p.MedicineName, p.Dosage, p.CourseDuration, "after food", p.CreatedAt))

	got, err := repo.Get(context.Background(), rxID)
	require.NoError(t, err)
	assert.Equal(t, "after food", got.Instructions)

	mock.ExpectQuery(selectOne).WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), rxID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), sample()), common.ErrorNotFound)

	mock.ExpectExec(deleteOne).WithArgs(rxID).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), rxID), common.ErrorNotFound)

	mock.ExpectExec(deleteOne).WithArgs(rxID).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(context.Background(), rxID))
}

func TestListByPatient(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	p := sample()
	mock.ExpectQuery(listByOwner).WithArgs(patientID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(p.ID, p.PatientID, p.MedicineName, p.Dosage, p.CourseDuration, "", p.CreatedAt))

	got, err := repo.ListByPatient(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rxID, got[0].ID)
}

func TestListByPatientBetween(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(listBetween).WithArgs(patientID, from, to).WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.ListByPatientBetween(context.Background(), patientID, from, to)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByPatient(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(deleteByOwner).WithArgs(patientID).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByPatient(context.Background(), patientID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.ExpectExec(deleteByOwner).WillReturnError(errors.New("db err"))
	_, err = repo.DeleteByPatient(context.Background(), patientID)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}
