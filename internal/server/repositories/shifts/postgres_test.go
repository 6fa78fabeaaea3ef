package shifts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shiftID = "6f1c2f7e-0c57-4a53-9d84-1f0a5c1e9b11"

var (
	selectByID   = `(?s)^SELECT\s+id,\s*start_time,\s*end_time,\s*to_char\(shift_date,\s*'YYYY-MM-DD'\)\s+FROM\s+shifts\s+WHERE\s+id\s*=\s*\$1\s*$`
	selectQueue  = `(?s)^SELECT\s+patient_id,\s*sequence_no\s+FROM\s+shift_queue_entries\s+WHERE\s+shift_id\s*=\s*\$1\s+ORDER\s+BY\s+position\s*$`
	selectLatest = `(?s)^SELECT\s+id,.*FROM\s+shifts\s+WHERE\s+shift_date\s*=\s*\$1::date\s+ORDER\s+BY\s+start_time\s+DESC\s+LIMIT\s+1\s*$`
	updateEnd    = `(?s)^UPDATE\s+shifts\s+SET\s+end_time\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,.*$`
	insertShift  = `(?s)^INSERT\s+INTO\s+shifts\s*\(id,\s*start_time,\s*end_time,\s*shift_date\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4::date\)\s*$`
	lockShift    = `(?s)^SELECT\s+end_time\s+FROM\s+shifts\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+SHARE\s*$`
	insertEntry  = `(?s)^INSERT\s+INTO\s+shift_queue_entries\s*\(shift_id,\s*patient_id,\s*sequence_no\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(shift_id,\s*patient_id\)\s*DO\s+NOTHING\s*$`
	shiftColumns = []string{"id", "start_time", "end_time", "shift_date"}
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(insertShift).
		WithArgs(shiftID, start, nil, "2025-05-01").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Shift{ID: shiftID, StartTime: start, ShiftDate: "2025-05-01"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(insertShift).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Shift{ID: shiftID})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestGet_WithQueueInOrder(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(selectByID).WithArgs(shiftID).
		WillReturnRows(sqlmock.NewRows(shiftColumns).AddRow(shiftID, start, nil, "2025-05-01"))
	mock.ExpectQuery(selectQueue).WithArgs(shiftID).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id", "sequence_no"}).
			AddRow("p-2", 1).
			AddRow("p-1", 2))

	got, err := repo.Get(context.Background(), shiftID)
	require.NoError(t, err)

	assert.Equal(t, shiftID, got.ID)
	assert.Nil(t, got.EndTime)
	assert.Equal(t, "2025-05-01", got.ShiftDate)
	assert.Equal(t, []models.QueueEntry{{SequenceNo: 1, PatientID: "p-2"}, {SequenceNo: 2, PatientID: "p-1"}}, got.Queue)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(selectByID).WithArgs(shiftID).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), shiftID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_MalformedIDIsNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	_, err := repo.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query must be issued")
}

func TestSetEndTime_ReturnsClosedShift(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	mock.ExpectQuery(updateEnd).WithArgs(shiftID, end).
		WillReturnRows(sqlmock.NewRows(shiftColumns).AddRow(shiftID, start, end, "2025-05-01"))
	mock.ExpectQuery(selectQueue).WithArgs(shiftID).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id", "sequence_no"}))

	got, err := repo.SetEndTime(context.Background(), shiftID, end)
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	assert.True(t, end.Equal(*got.EndTime))
	assert.Empty(t, got.Queue)
	assert.NotNil(t, got.Queue)
}

func TestSetEndTime_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(updateEnd).WillReturnError(sql.ErrNoRows)

	_, err := repo.SetEndTime(context.Background(), shiftID, time.Now())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLatestByDate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	start := time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(selectLatest).WithArgs("2025-05-01").
		WillReturnRows(sqlmock.NewRows(shiftColumns).AddRow(shiftID, start, nil, "2025-05-01"))
	mock.ExpectQuery(selectQueue).WithArgs(shiftID).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id", "sequence_no"}))

	got, err := repo.LatestByDate(context.Background(), "2025-05-01")
	require.NoError(t, err)
	assert.Equal(t, start, got.StartTime)
}

func TestLatestByDate_NoneToday(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(selectLatest).WithArgs("2025-05-02").WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestByDate(context.Background(), "2025-05-02")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestEnqueue(t *testing.T) {
	entry := models.QueueEntry{SequenceNo: 3, PatientID: "9b1f6f2c-5d0a-4f55-b1b5-2b8e7e3c1a20"}
	closedAt := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		setup       func(mock sqlmock.Sqlmock)
		allowClosed bool
		wantErr     error
	}{
		{
			name: "appends to open shift",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(lockShift).WithArgs(shiftID).
					WillReturnRows(sqlmock.NewRows([]string{"end_time"}).AddRow(nil))
				mock.ExpectExec(insertEntry).WithArgs(shiftID, entry.PatientID, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "duplicate patient",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(lockShift).WithArgs(shiftID).
					WillReturnRows(sqlmock.NewRows([]string{"end_time"}).AddRow(nil))
				mock.ExpectExec(insertEntry).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: common.ErrAlreadyQueued,
		},
		{
			name: "unknown shift",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(lockShift).WillReturnError(sql.ErrNoRows)
			},
			wantErr: common.ErrorNotFound,
		},
		{
			name: "closed shift rejected",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(lockShift).
					WillReturnRows(sqlmock.NewRows([]string{"end_time"}).AddRow(closedAt))
			},
			wantErr: common.ErrShiftClosed,
		},
		{
			name:        "closed shift allowed by policy",
			allowClosed: true,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(lockShift).
					WillReturnRows(sqlmock.NewRows([]string{"end_time"}).AddRow(closedAt))
				mock.ExpectExec(insertEntry).WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			tt.setup(mock)

			err := repo.Enqueue(context.Background(), shiftID, entry, tt.allowClosed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnqueue_InsertError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(lockShift).WillReturnRows(sqlmock.NewRows([]string{"end_time"}).AddRow(nil))
	mock.ExpectExec(insertEntry).WillReturnError(errors.New("deadlock"))

	err := repo.Enqueue(context.Background(), shiftID, models.QueueEntry{SequenceNo: 1, PatientID: "p"}, false)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*deadlock`, err.Error())
}
