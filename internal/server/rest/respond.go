package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hamarchia/ClinicSystem/internal/common"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// problem is a simplified RFC 7807 body.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, problem{
		Type:   typ,
		Title:  http.StatusText(code),
		Status: code,
		Detail: detail,
	})
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, common.ErrConflict):
		writeProblem(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeProblem(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		h.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeProblem(w, http.StatusInternalServerError, "internal_error", common.ErrorInternal.Error())
	}
}

// decodeJSON reads the request body into v; malformed JSON is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.Validationf("malformed request body: %v", err)
	}
	return nil
}
