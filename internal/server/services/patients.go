package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/dbx"
	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/repomanager"
)

// PatientService manages the patient directory.
type PatientService struct {
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	log         logging.Logger
}

func NewPatientService(m repomanager.RepositoryManager, log logging.Logger) *PatientService {
	return &PatientService{
		repomanager: m,
		now:         time.Now,
		log:         log.With("module", "patients"),
	}
}

func (s *PatientService) Create(ctx context.Context, in *models.PatientInput) (*models.Patient, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	p := &models.Patient{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
	in.Apply(p)

	if err := s.repomanager.Patients(s.repomanager.Conn()).Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.log.Info(ctx, "patient created", "patient_id", p.ID)
	return p, nil
}

func (s *PatientService) List(ctx context.Context) ([]*models.Patient, error) {
	list, err := s.repomanager.Patients(s.repomanager.Conn()).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return list, nil
}

// Get returns one patient. It doubles as the PatientLookup for queue
// expansion.
func (s *PatientService) Get(ctx context.Context, id string) (*models.Patient, error) {
	p, err := s.repomanager.Patients(s.repomanager.Conn()).Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

// Update applies the provided fields only.
func (s *PatientService) Update(ctx context.Context, id string, in *models.PatientInput) (*models.Patient, error) {
	if fields := present(in); len(fields) > 0 {
		if err := validateInput(in, fields...); err != nil {
			return nil, err
		}
	}

	var updated *models.Patient
	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Patients(tx)

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
		return nil, fmt.Errorf("update patient: %w", err)
	}

	return updated, nil
}

// Delete removes the patient together with all of their prescriptions.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	var removed int64
	err := s.repomanager.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Patients(tx).Get(ctx, id); err != nil {
			return err
		}

		n, err := s.repomanager.Prescriptions(tx).DeleteByPatient(ctx, id)
		if err != nil {
			return err
		}
		removed = n

		return s.repomanager.Patients(tx).Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}

	s.log.Info(ctx, "patient deleted", "patient_id", id, "prescriptions_removed", removed)
	return nil
}

// SearchByName matches case-insensitive substrings of either name; when
// both are given both must match.
func (s *PatientService) SearchByName(ctx context.Context, firstName, lastName string) ([]*models.Patient, error) {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return nil, common.Validationf("firstName or lastName is required")
	}

	list, err := s.repomanager.Patients(s.repomanager.Conn()).SearchByName(ctx, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return list, nil
}

func (s *PatientService) SearchByAddress(ctx context.Context, address string) ([]*models.Patient, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, common.Validationf("address is required")
	}

	list, err := s.repomanager.Patients(s.repomanager.Conn()).SearchByAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}
	return list, nil
}
