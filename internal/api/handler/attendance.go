package handler

import (
	"net/http"
	"strconv"
	"time"

	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AttendanceHandler struct {
	Service *core.AttendanceService
}

type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lon float64 `json:"lon" validate:"longitude"`
}

func (c Coordinates) toModel() model.Coordinate {
	return model.Coordinate{Lat: c.Lat, Lon: c.Lon}
}

type AttendanceRequest struct {
	Coords *Coordinates `json:"coords" validate:"required"`
	Action string       `json:"action" validate:"required,oneof=IN OUT"`
}

type LocationCheckRequest struct {
	Coords *Coordinates `json:"coords" validate:"required"`
}

type CorrectionRequest struct {
	Status string  `json:"status" validate:"required,oneof=PRESENT LATE WFH LEAVE ABSENT"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

// Record handles POST /attendance for both actions.
func (h *AttendanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req AttendanceRequest
	if err := bind(w, r, &req); err != nil {
		badRequest(w, FormatBindingError(err))
		return
	}

	switch model.Action(req.Action) {
	case model.ActionIn:
		res, err := h.Service.CheckIn(r.Context(), actor, req.Coords.toModel())
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, http.StatusCreated, "Checked in as "+string(res.Record.Status), res)
	case model.ActionOut:
		res, err := h.Service.CheckOut(r.Context(), actor, req.Coords.toModel())
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, http.StatusOK, "Checked out", res)
	default:
		badRequest(w, "Field 'action' must be one of [IN OUT]")
	}
}

// LocationCheck handles POST /attendance/location-check.
func (h *AttendanceHandler) LocationCheck(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req LocationCheckRequest
	if err := bind(w, r, &req); err != nil {
		badRequest(w, FormatBindingError(err))
		return
	}

	check, err := h.Service.CheckLocation(r.Context(), actor, req.Coords.toModel())
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg := "Inside the office area"
	if !check.Within {
		msg = "Outside the office area"
	}
	ok(w, http.StatusOK, msg, check)
}

// Monthly handles GET /attendance/monthly?month=&year=. Missing values default to the current month.
func (h *AttendanceHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	now := time.Now().UTC()
	month, err := intQuery(r, "month", int(now.Month()))
	if err != nil {
		badRequest(w, "Field 'month' must be numeric")
		return
	}
	year, err := intQuery(r, "year", now.Year())
	if err != nil {
		badRequest(w, "Field 'year' must be numeric")
		return
	}

	recs, err := h.Service.Monthly(r.Context(), actor, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Attendance history", recs)
}

// Correct handles PUT /admin/attendance/{employeeId}/{date}.
func (h *AttendanceHandler) Correct(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	vars := mux.Vars(r)

	if uuid.Validate(vars["employeeId"]) != nil {
		badRequest(w, "Path 'employeeId' must be a UUID")
		return
	}
	day, err := model.ParseDate(vars["date"])
	if err != nil {
		badRequest(w, "Path 'date' must be a date in YYYY-MM-DD format")
		return
	}

	var req CorrectionRequest
	if err := bind(w, r, &req); err != nil {
		badRequest(w, FormatBindingError(err))
		return
	}

	rec, err := h.Service.Correct(r.Context(), actor, vars["employeeId"], day, model.AttendanceStatus(req.Status), req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Attendance corrected", rec)
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
