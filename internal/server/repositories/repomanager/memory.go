package repomanager

import (
	"context"
	"sync"

	"github.com/hamarchia/ClinicSystem/internal/dbx"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/patients"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/prescriptions"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/shifts"
)

// InMemoryRepositoryManager hands out process-local repositories. The DBTX
// arguments are ignored. RunInTx serializes units of work with each other,
// which is enough for the multi-step writes the services perform (each
// single repository call is atomic on its own).
type InMemoryRepositoryManager struct {
	txMu          sync.Mutex
	shifts        *shifts.MemoryRepository
	patients      *patients.MemoryRepository
	prescriptions *prescriptions.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		shifts:        shifts.NewMemoryRepository(),
		patients:      patients.NewMemoryRepository(),
		prescriptions: prescriptions.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) Shifts(dbx.DBTX) shifts.Repository {
	return m.shifts
}

func (m *InMemoryRepositoryManager) Patients(dbx.DBTX) patients.Repository {
	return m.patients
}

func (m *InMemoryRepositoryManager) Prescriptions(dbx.DBTX) prescriptions.Repository {
	return m.prescriptions
}

func (m *InMemoryRepositoryManager) Conn() dbx.DBTX {
	return nil
}

func (m *InMemoryRepositoryManager) RunInTx(ctx context.Context, fn dbx.TxFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
