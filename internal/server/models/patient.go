package models

import "time"

type Patient struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	DOB       string    `json:"dob"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// PatientInput carries create/update fields. On update nil fields are left
// unchanged; on create every field is required.
type PatientInput struct {
	FirstName *string `json:"firstName" validate:"required,notblank"`
	LastName  *string `json:"lastName" validate:"required,notblank"`
	Phone     *string `json:"phone" validate:"required,notblank"`
	DOB       *string `json:"dob" validate:"required,notblank"`
	Address   *string `json:"address" validate:"required,notblank"`
}

// Apply copies the non-nil fields onto p.
func (in *PatientInput) Apply(p *Patient) {
	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.DOB != nil {
		p.DOB = *in.DOB
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
}
