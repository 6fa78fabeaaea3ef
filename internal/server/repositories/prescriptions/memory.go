package prescriptions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]models.Prescription
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.Prescription)}
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = *p
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) Update(_ context.Context, p *models.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	updated := *p
	updated.PatientID = current.PatientID
	updated.CreatedAt = current.CreatedAt
	r.items[p.ID] = updated
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) ListByPatient(_ context.Context, patientID string) ([]*models.Prescription, error) {
	return r.filter(func(p models.Prescription) bool { return p.PatientID == patientID }), nil
}

func (r *MemoryRepository) ListByPatientBetween(_ context.Context, patientID string, from, to time.Time) ([]*models.Prescription, error) {
	return r.filter(func(p models.Prescription) bool {
		return p.PatientID == patientID && !p.CreatedAt.Before(from) && p.CreatedAt.Before(to)
	}), nil
}

func (r *MemoryRepository) DeleteByPatient(_ context.Context, patientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.items {
		if p.PatientID == patientID {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) filter(keep func(models.Prescription) bool) []*models.Prescription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Prescription{}
	for _, p := range r.items {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
