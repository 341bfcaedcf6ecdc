package handler

import (
	"net/http"

	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

type CompanyHandler struct {
	Service *core.CompanyService
}

type GeofenceRequest struct {
	Lat     float64 `json:"lat" validate:"latitude"`
	Lon     float64 `json:"lon" validate:"longitude"`
	RadiusM float64 `json:"radius_m" validate:"required,gt=0"`
}

type SuspensionRequest struct {
	Suspended *bool `json:"suspended" validate:"required"`
}

// UpdateGeofence handles PATCH /admin/company/geofence.
func (h *CompanyHandler) UpdateGeofence(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req GeofenceRequest
	if err := bind(w, r, &req); err != nil {
		badRequest(w, FormatBindingError(err))
		return
	}

	company, err := h.Service.UpdateGeofence(r.Context(), actor, model.Geofence{
		Center:  model.Coordinate{Lat: req.Lat, Lon: req.Lon},
		RadiusM: req.RadiusM,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Geofence updated", company)
}

// SetSuspension handles PATCH /admin/company/suspension.
func (h *CompanyHandler) SetSuspension(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req SuspensionRequest
	if err := bind(w, r, &req); err != nil {
		badRequest(w, FormatBindingError(err))
		return
	}

	company, err := h.Service.SetSuspended(r.Context(), actor, *req.Suspended)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Suspension updated", company)
}
