package shifts

import (
	"context"
	"sync"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

// MemoryRepository keeps shifts in process memory. One mutex covers every
// operation, so Enqueue's check-and-append is atomic.
type MemoryRepository struct {
	mu     sync.RWMutex
	shifts map[string]*models.Shift
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{shifts: make(map[string]*models.Shift)}
}

func (r *MemoryRepository) Create(_ context.Context, shift *models.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts[shift.ID] = shift.Clone()
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) SetEndTime(_ context.Context, id string, end time.Time) (*models.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	s.EndTime = &end
	return s.Clone(), nil
}

func (r *MemoryRepository) LatestByDate(_ context.Context, date string) (*models.Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.Shift
	for _, s := range r.shifts {
		if s.ShiftDate != date {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = s
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	return latest.Clone(), nil
}

func (r *MemoryRepository) Enqueue(_ context.Context, shiftID string, entry models.QueueEntry, allowClosed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shifts[shiftID]
	if !ok {
		return common.ErrorNotFound
	}
	if s.IsClosed() && !allowClosed {
		return common.ErrShiftClosed
	}
	if s.HasPatient(entry.PatientID) {
		return common.ErrAlreadyQueued
	}
	entry.Patient = nil
	s.Queue = append(s.Queue, entry)
	return nil
}
