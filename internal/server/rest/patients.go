package rest

import (
	"net/http"

	"github.com/hamarchia/ClinicSystem/internal/server/models"
)

func (h *Handlers) createPatient(w http.ResponseWriter, r *http.Request) {
	var in models.PatientInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.patients.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) listPatients(w http.ResponseWriter, r *http.Request) {
	list, err := h.patients.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) getPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.patients.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) updatePatient(w http.ResponseWriter, r *http.Request) {
	var in models.PatientInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	p, err := h.patients.Update(r.Context(), r.PathValue("id"), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) deletePatient(w http.ResponseWriter, r *http.Request) {
	if err := h.patients.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) searchPatientsByName(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.patients.SearchByName(r.Context(), q.Get("firstName"), q.Get("lastName"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) searchPatientsByAddress(w http.ResponseWriter, r *http.Request) {
	list, err := h.patients.SearchByAddress(r.Context(), r.URL.Query().Get("address"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
