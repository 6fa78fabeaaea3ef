package rest

import (
	"net/http"

	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

func (h *Handlers) createPrescription(w http.ResponseWriter, r *http.Request) {
	var in models.PrescriptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.prescriptions.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) updatePrescription(w http.ResponseWriter, r *http.Request) {
	var in models.PrescriptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.prescriptions.Update(r.Context(), r.PathValue("id"), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) deletePrescription(w http.ResponseWriter, r *http.Request) {
	if err := h.prescriptions.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) patientPrescriptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.prescriptions.ListByPatient(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) patientPrescriptionsForDate(w http.ResponseWriter, r *http.Request) {
	list, err := h.prescriptions.ListForDate(r.Context(), r.PathValue("id"), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
