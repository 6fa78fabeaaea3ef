// Package patients stores patient records.
package patients

import (
	"context"

	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

// Repository persists patients. Lists are ordered newest first.
// Phone numbers are unique; violations surface as common.ErrDuplicatePhone.
type Repository interface {
	Create(ctx context.Context, p *models.Patient) error
	Get(ctx context.Context, id string) (*models.Patient, error)
	List(ctx context.Context) ([]*models.Patient, error)
	Update(ctx context.Context, p *models.Patient) error
	Delete(ctx context.Context, id string) error
	// SearchByName matches case-insensitive substrings; an empty argument
	// does not constrain.
	SearchByName(ctx context.Context, firstName, lastName string) ([]*models.Patient, error)
	SearchByAddress(ctx context.Context, address string) ([]*models.Patient, error)
}
