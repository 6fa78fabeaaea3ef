package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/dbx"
	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/repomanager"
)

// PatientLookup resolves queue entries to patient records.
type PatientLookup interface {
	Get(ctx context.Context, id string) (*models.Patient, error)
}

// Archiver stores a snapshot of a closed shift.
type Archiver interface {
	ArchiveShift(ctx context.Context, shift *models.Shift) error
}

// ShiftService owns the shift lifecycle and the visit queue.
type ShiftService struct {
	repomanager repomanager.RepositoryManager
	patients    PatientLookup
	archiver    Archiver
	loc         *time.Location
	allowClosed bool
	now         func() time.Time
	log         logging.Logger
}

// NewShiftService builds a ShiftService. loc decides which calendar day
// "today" is; allowClosed lets AddToQueue append to ended shifts.
func NewShiftService(m repomanager.RepositoryManager, patients PatientLookup, loc *time.Location, allowClosed bool, log logging.Logger) *ShiftService {
	if loc == nil {
		loc = time.Local
	}
	return &ShiftService{
		repomanager: m,
		patients:    patients,
		loc:         loc,
		allowClosed: allowClosed,
		now:         time.Now,
		log:         log.With("module", "shifts"),
	}
}

// WithArchiver sets the archiver used after EndShift.
func (s *ShiftService) WithArchiver(a Archiver) *ShiftService {
	s.archiver = a
	return s
}

func (s *ShiftService) StartShift(ctx context.Context) (*models.Shift, error) {
	now := s.now().In(s.loc)
	shift := &models.Shift{
		ID:        uuid.NewString(),
		StartTime: now,
		ShiftDate: now.Format(common.DateLayout),
		Queue:     []models.QueueEntry{},
	}

	if err := s.repomanager.Shifts(s.repomanager.Conn()).Create(ctx, shift); err != nil {
		return nil, fmt.Errorf("start shift: %w", err)
	}

	s.log.Info(ctx, "shift started", "shift_id", shift.ID, "date", shift.ShiftDate)
	return shift, nil
}

// EndShift stamps the end time. Ending an ended shift moves the end time
// forward. The closed shift is archived when an archiver is configured;
// archiving failures are logged only.
func (s *ShiftService) EndShift(ctx context.Context, id string) (*models.Shift, error) {
	shift, err := s.repomanager.Shifts(s.repomanager.Conn()).SetEndTime(ctx, id, s.now().In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("end shift: %w", err)
	}

	if err := s.expand(ctx, shift); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "shift ended", "shift_id", shift.ID, "queue_len", len(shift.Queue))

	if s.archiver != nil {
		if err := s.archiver.ArchiveShift(ctx, shift); err != nil {
			s.log.Error(ctx, "shift archive failed", "shift_id", shift.ID, "error", err)
		}
	}

	return shift, nil
}

// GetCurrentShift returns the latest shift started today, open or closed.
func (s *ShiftService) GetCurrentShift(ctx context.Context) (*models.Shift, error) {
	today := s.now().In(s.loc).Format(common.DateLayout)

	shift, err := s.repomanager.Shifts(s.repomanager.Conn()).LatestByDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("current shift: %w", err)
	}

	if err := s.expand(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *ShiftService) GetShift(ctx context.Context, id string) (*models.Shift, error) {
	shift, err := s.repomanager.Shifts(s.repomanager.Conn()).Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get shift: %w", err)
	}

	if err := s.expand(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

// AddToQueue appends patientID to the shift's queue unless it is already
// there. The sequence number is stored as given.
func (s *ShiftService) AddToQueue(ctx context.Context, shiftID string, sequenceNo int, patientID string) (*models.Shift, error) {
	if sequenceNo <= 0 || sequenceNo > math.MaxInt32 {
		return nil, common.Validationf("sequenceNo must be a positive integer up to %d", math.MaxInt32)
	}
	if patientID == "" {
		return nil, common.Validationf("patientId is required")
	}
	if uuid.Validate(patientID) != nil {
		return nil, common.Validationf("patientId %q is not a valid id", patientID)
	}

	entry := models.QueueEntry{SequenceNo: sequenceNo, PatientID: patientID}

	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Shifts(tx).Enqueue(ctx, shiftID, entry, s.allowClosed)
	})
	if err != nil {
		return nil, fmt.Errorf("add to queue: %w", err)
	}

	s.log.Info(ctx, "patient queued", "shift_id", shiftID, "patient_id", patientID, "sequence_no", sequenceNo)

	return s.GetShift(ctx, shiftID)
}

// expand fills Patient on every queue entry whose patient still exists.
func (s *ShiftService) expand(ctx context.Context, shift *models.Shift) error {
	if s.patients == nil {
		return nil
	}
	for i := range shift.Queue {
		p, err := s.patients.Get(ctx, shift.Queue[i].PatientID)
		switch {
		case err == nil:
			shift.Queue[i].Patient = p
		case errors.Is(err, common.ErrorNotFound):
			shift.Queue[i].Patient = nil
		default:
			return fmt.Errorf("expand queue: %w", err)
		}
	}
	return nil
}
