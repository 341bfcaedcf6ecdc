package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"attendance.service/internal/core"
	"github.com/rs/zerolog/log"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, Response{Success: true, Message: msg, Data: data})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, Response{Message: msg, Code: string(core.KindValidation)})
}

// statusFor maps a domain error kind onto its HTTP status.
func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation, core.KindInvalidRange:
		return http.StatusBadRequest
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindAlreadyCheckedIn, core.KindAlreadyCheckedOut, core.KindNoCheckInYet,
		core.KindOnLeave, core.KindOverlap, core.KindAlreadyDecided:
		return http.StatusConflict
	case core.KindOutOfRange, core.KindTooEarly, core.KindShiftNotConfigured:
		return http.StatusUnprocessableEntity
	case core.KindStorage:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// writeError renders a service error. Storage failures are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		writeJSON(w, status, Response{Message: "internal error", Code: string(core.KindStorage)})
		return
	}

	body := Response{Message: err.Error(), Code: string(kind)}
	var oor *core.OutOfRangeError
	if errors.As(err, &oor) {
		body.Data = map[string]float64{"distance_m": oor.Distance, "radius_m": oor.Radius}
	}
	writeJSON(w, status, body)
}
