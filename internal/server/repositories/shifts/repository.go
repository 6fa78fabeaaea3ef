// Package shifts stores shifts and their visit queues.
package shifts

import (
	"context"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

// Repository persists shifts. Returned shifts carry their queue in insertion
// order with Patient left nil; expansion is the caller's job.
type Repository interface {
	Create(ctx context.Context, shift *models.Shift) error
	Get(ctx context.Context, id string) (*models.Shift, error)
	// SetEndTime stamps end on the shift and returns the updated record.
	SetEndTime(ctx context.Context, id string, end time.Time) (*models.Shift, error)
	// LatestByDate returns the most recently started shift dated date
	// (YYYY-MM-DD) or common.ErrorNotFound.
	LatestByDate(ctx context.Context, date string) (*models.Shift, error)
	// Enqueue appends entry unless the patient is already queued
	// (common.ErrAlreadyQueued). A closed shift is rejected with
	// common.ErrShiftClosed unless allowClosed is set.
	Enqueue(ctx context.Context, shiftID string, entry models.QueueEntry, allowClosed bool) error
}
