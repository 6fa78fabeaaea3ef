package services

import (
	"context"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/models"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/repomanager"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) set(t time.Time)         { c.t = t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	rm            *repomanager.InMemoryRepositoryManager
	clock         *clock
	patients      *PatientService
	shifts        *ShiftService
	prescriptions *PrescriptionService
}

func newFixture(loc *time.Location, start time.Time) *fixture {
	rm := repomanager.NewInMemoryRepositoryManager()
	c := &clock{t: start}

	ps := NewPatientService(rm, nopLogger{})
	ps.now = c.now

	ss := NewShiftService(rm, ps, loc, false, nopLogger{})
	ss.now = c.now

	rx := NewPrescriptionService(rm, loc, nopLogger{})
	rx.now = c.now

	return &fixture{rm: rm, clock: c, patients: ps, shifts: ss, prescriptions: rx}
}

func strp(s string) *string { return &s }

func patientInput(first, last, phone string) *models.PatientInput {
	return &models.PatientInput{
		FirstName: strp(first),
		LastName:  strp(last),
		Phone:     strp(phone),
		DOB:       strp("1990-01-01"),
		Address:   strp("12 Market Road"),
	}
}
