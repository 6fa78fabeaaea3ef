// Package prescriptions stores prescriptions, each owned by one patient.
package prescriptions

import (
	"context"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

// Repository persists prescriptions. Lists are ordered newest first.
type Repository interface {
	// Create may fail with common.ErrorNotFound when the store enforces the
	// patient reference.
	Create(ctx context.Context, p *models.Prescription) error
	Get(ctx context.Context, id string) (*models.Prescription, error)
	Update(ctx context.Context, p *models.Prescription) error
	Delete(ctx context.Context, id string) error
	ListByPatient(ctx context.Context, patientID string) ([]*models.Prescription, error)
	// ListByPatientBetween returns prescriptions created in [from, to).
	ListByPatientBetween(ctx context.Context, patientID string, from, to time.Time) ([]*models.Prescription, error)
	DeleteByPatient(ctx context.Context, patientID string) (int64, error)
}
