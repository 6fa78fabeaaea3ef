package patients

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hamarchia/ClinicSystem/internal/common"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

type MemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]models.Patient
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{patients: make(map[string]models.Patient)}
}

func (r *MemoryRepository) Create(_ context.Context, p *models.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phoneTaken(p.Phone, p.ID) {
		return common.ErrDuplicatePhone
	}
	r.patients[p.ID] = *p
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.Patient, error) {
	return r.filter(func(models.Patient) bool { return true }), nil
}

func (r *MemoryRepository) Update(_ context.Context, p *models.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.patients[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if r.phoneTaken(p.Phone, p.ID) {
		return common.ErrDuplicatePhone
	}
	updated := *p
	updated.CreatedAt = current.CreatedAt
	r.patients[p.ID] = updated
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.patients, id)
	return nil
}

func (r *MemoryRepository) SearchByName(_ context.Context, firstName, lastName string) ([]*models.Patient, error) {
	return r.filter(func(p models.Patient) bool {
		return containsFold(p.FirstName, firstName) && containsFold(p.LastName, lastName)
	}), nil
}

func (r *MemoryRepository) SearchByAddress(_ context.Context, address string) ([]*models.Patient, error) {
	return r.filter(func(p models.Patient) bool {
		return containsFold(p.Address, address)
	}), nil
}

// phoneTaken must be called with mu held.
func (r *MemoryRepository) phoneTaken(phone, exceptID string) bool {
	for id, p := range r.patients {
		if id != exceptID && p.Phone == phone {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) filter(keep func(models.Patient) bool) []*models.Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Patient{}
	for _, p := range r.patients {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
