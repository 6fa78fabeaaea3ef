package rest

import (
	"net/http"

	"github.com/hamarchia/ClinicSystem/internal/logging"
)

// NewRouter wires every route. All routes except /healthz require a valid
// access token.
func NewRouter(h *Handlers, secret []byte, log logging.Logger) http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /shifts", h.startShift)
	api.HandleFunc("GET /shifts/current", h.currentShift)
	api.HandleFunc("GET /shifts/{id}", h.getShift)
	api.HandleFunc("PUT /shifts/{id}/end", h.endShift)
	api.HandleFunc("PUT /shifts/{id}/queue", h.addToQueue)
	api.HandleFunc("GET /shifts/{id}/archive", h.shiftArchive)

	api.HandleFunc("POST /patients", h.createPatient)
	api.HandleFunc("GET /patients", h.listPatients)
	api.HandleFunc("GET /patients/search", h.searchPatientsByName)
	api.HandleFunc("GET /patients/search/address", h.searchPatientsByAddress)
	api.HandleFunc("GET /patients/{id}", h.getPatient)
	api.HandleFunc("PUT /patients/{id}", h.updatePatient)
	api.HandleFunc("DELETE /patients/{id}", h.deletePatient)
	api.HandleFunc("GET /patients/{id}/prescriptions", h.patientPrescriptions)
	api.HandleFunc("GET /patients/{id}/prescriptions/current", h.patientPrescriptionsForDate)

	api.HandleFunc("POST /prescriptions", h.createPrescription)
	api.HandleFunc("PUT /prescriptions/{id}", h.updatePrescription)
	api.HandleFunc("DELETE /prescriptions/{id}", h.deletePrescription)

	if h.presence != nil {
		api.Handle("GET /presence/ws", h.presence)
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", h.health)
	root.Handle("/", requireAuth(secret, api))

	return logRequests(h.log, root)
}
