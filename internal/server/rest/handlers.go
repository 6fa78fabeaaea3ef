package rest

import (
	"context"
	"net/http"

	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

type ShiftService interface {
	StartShift(ctx context.Context) (*models.Shift, error)
	EndShift(ctx context.Context, id string) (*models.Shift, error)
	GetCurrentShift(ctx context.Context) (*models.Shift, error)
	GetShift(ctx context.Context, id string) (*models.Shift, error)
	AddToQueue(ctx context.Context, shiftID string, sequenceNo int, patientID string) (*models.Shift, error)
}

type PatientService interface {
	Create(ctx context.Context, in *models.PatientInput) (*models.Patient, error)
	List(ctx context.Context) ([]*models.Patient, error)
	Get(ctx context.Context, id string) (*models.Patient, error)
	Update(ctx context.Context, id string, in *models.PatientInput) (*models.Patient, error)
	Delete(ctx context.Context, id string) error
	SearchByName(ctx context.Context, firstName, lastName string) ([]*models.Patient, error)
	SearchByAddress(ctx context.Context, address string) ([]*models.Patient, error)
}

type PrescriptionService interface {
	Create(ctx context.Context, in *models.PrescriptionInput) (*models.Prescription, error)
	Update(ctx context.Context, id string, in *models.PrescriptionInput) (*models.Prescription, error)
	Delete(ctx context.Context, id string) error
	ListByPatient(ctx context.Context, patientID string) ([]*models.Prescription, error)
	ListForDate(ctx context.Context, patientID, date string) ([]*models.Prescription, error)
}

// ArchiveLinker resolves presigned links to archived shifts.
type ArchiveLinker interface {
	PresignedURL(ctx context.Context, shift *models.Shift) (string, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	shifts        ShiftService
	patients      PatientService
	prescriptions PrescriptionService
	archive       ArchiveLinker
	presence      http.Handler
	log           logging.Logger
}

func NewHandlers(shifts ShiftService, patients PatientService, prescriptions PrescriptionService,
	archive ArchiveLinker, presence http.Handler, log logging.Logger) *Handlers {
	return &Handlers{
		shifts:        shifts,
		patients:      patients,
		prescriptions: prescriptions,
		archive:       archive,
		presence:      presence,
		log:           log.With("module", "http_handlers"),
	}
}

func (h *Handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
