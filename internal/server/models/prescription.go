package models

import "time"

type Prescription struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patientId"`
	MedicineName   string    `json:"medicineName"`
	Dosage         string    `json:"dosage"`
	CourseDuration string    `json:"courseDuration"`
	Instructions   string    `json:"instructions,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PrescriptionInput carries create/update fields, with the same nil
// semantics as PatientInput. PatientID is ignored on update.
type PrescriptionInput struct {
	PatientID      *string `json:"patientId" validate:"required,notblank"`
	MedicineName   *string `json:"medicineName" validate:"required,notblank"`
	Dosage         *string `json:"dosage" validate:"required,notblank"`
	CourseDuration *string `json:"courseDuration" validate:"required,notblank"`
	Instructions   *string `json:"instructions"`
}

// Apply copies the non-nil fields, except PatientID, onto p.
func (in *PrescriptionInput) Apply(p *Prescription) {
	if in.MedicineName != nil {
		p.MedicineName = *in.MedicineName
	}
	if in.Dosage != nil {
		p.Dosage = *in.Dosage
	}
	if in.CourseDuration != nil {
		p.CourseDuration = *in.CourseDuration
	}
	if in.Instructions != nil {
		p.Instructions = *in.Instructions
	}
}
