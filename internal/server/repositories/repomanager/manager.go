package repomanager

import (
	"context"

	"github.com/hamarchia/ClinicSystem/internal/dbx"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/patients"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/prescriptions"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/shifts"
)

// RepositoryManager vends repositories bound to a DBTX and runs units of
// work atomically. Services pass Conn() for plain reads and the handle given
// to RunInTx for multi-step writes.
type RepositoryManager interface {
	dbx.TxRunner
	RunMigrations(ctx context.Context) error
	Conn() dbx.DBTX
	Close() error
	Shifts(db dbx.DBTX) shifts.Repository
	Patients(db dbx.DBTX) patients.Repository
	Prescriptions(db dbx.DBTX) prescriptions.Repository
}
