package rest

import (
	"net/http"
)

type enqueueRequest struct {
	SequenceNo int    `json:"sequenceNo"`
	PatientID  string `json:"patientId"`
}

func (h *Handlers) startShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.StartShift(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info(r.Context(), "shift started", append([]any{"shift_id", shift.ID}, actor(r)...)...)
	writeJSON(w, http.StatusCreated, shift)
}

func (h *Handlers) endShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.EndShift(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info(r.Context(), "shift ended", append([]any{"shift_id", shift.ID}, actor(r)...)...)
	writeJSON(w, http.StatusOK, shift)
}

func (h *Handlers) addToQueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	shift, err := h.shifts.AddToQueue(r.Context(), r.PathValue("id"), req.SequenceNo, req.PatientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (h *Handlers) currentShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.GetCurrentShift(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (h *Handlers) getShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.GetShift(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (h *Handlers) shiftArchive(w http.ResponseWriter, r *http.Request) {
	shift, err := h.shifts.GetShift(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	url, err := h.archive.PresignedURL(r.Context(), shift)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
