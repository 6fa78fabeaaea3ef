package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/dbx"
	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/repomanager"
	"github.com/hamarchia/ClinicSystem/internal/timex"
)

// PrescriptionService manages the prescriptions owned by patients.
type PrescriptionService struct {
	repomanager repomanager.RepositoryManager
	loc         *time.Location
	now         func() time.Time
	log         logging.Logger
}

func NewPrescriptionService(m repomanager.RepositoryManager, loc *time.Location, log logging.Logger) *PrescriptionService {
	if loc == nil {
		loc = time.Local
	}
	return &PrescriptionService{
		repomanager: m,
		loc:         loc,
		now:         time.Now,
		log:         log.With("module", "prescriptions"),
	}
}

// Create records a prescription for an existing patient.
func (s *PrescriptionService) Create(ctx context.Context, in *models.PrescriptionInput) (*models.Prescription, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	p := &models.Prescription{
		ID:        uuid.NewString(),
		PatientID: *in.PatientID,
		CreatedAt: s.now().UTC(),
	}
	in.Apply(p)

	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Patients(tx).Get(ctx, p.PatientID); err != nil {
			return err
		}
		return s.repomanager.Prescriptions(tx).Create(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}

	s.log.Info(ctx, "prescription created", "prescription_id", p.ID, "patient_id", p.PatientID)
	return p, nil
}

// Update applies the provided fields; the owning patient never changes.
func (s *PrescriptionService) Update(ctx context.Context, id string, in *models.PrescriptionInput) (*models.Prescription, error) {
	in.PatientID = nil
	if fields := present(in); len(fields) > 0 {
		if err := validateInput(in, fields...); err != nil {
			return nil, err
		}
	}

	var updated *models.Prescription
	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Prescriptions(tx)

		p, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		in.Apply(p)

		if err := repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update prescription: %w", err)
	}

	return updated, nil
}

func (s *PrescriptionService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.Prescriptions(s.repomanager.Conn()).Delete(ctx, id); err != nil {
		return fmt.Errorf("delete prescription: %w", err)
	}
	return nil
}

// ListByPatient returns the patient's prescriptions, newest first. A patient
// without prescriptions yields common.ErrorNotFound.
func (s *PrescriptionService) ListByPatient(ctx context.Context, patientID string) ([]*models.Prescription, error) {
	list, err := s.repomanager.Prescriptions(s.repomanager.Conn()).ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no prescriptions for patient: %w", common.ErrorNotFound)
	}
	return list, nil
}

// ListForDate returns prescriptions created during the clinic-local day
// given as YYYY-MM-DD. An empty date means today.
func (s *PrescriptionService) ListForDate(ctx context.Context, patientID, date string) ([]*models.Prescription, error) {
	day := s.now().In(s.loc)
	if date != "" {
		parsed, err := time.ParseInLocation(common.DateLayout, date, s.loc)
		if err != nil {
			return nil, common.Validationf("date %q must be formatted as YYYY-MM-DD", date)
		}
		day = parsed
	}
	from, to := timex.DayBounds(day, s.loc)

	list, err := s.repomanager.Prescriptions(s.repomanager.Conn()).ListByPatientBetween(ctx, patientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	if list == nil {
		list = []*models.Prescription{}
	}
	return list, nil
}
