package handler

import (
	"net/http"

	"attendance.service/internal/api/middleware"
	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type LeaveHandler struct {
	Service *core.LeaveService
}

type SubmitLeaveRequest struct {
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Type      string  `json:"type" validate:"required,oneof=LEAVE WFH"`
	Reason    string  `json:"reason" validate:"required,max=500"`
	Note      *string `json:"note" validate:"omitempty,max=500"`
}

type DecideLeaveRequest struct {
	Status string  `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

// Submit handles POST /leave.
func (h *LeaveHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req SubmitLeaveRequest
	if err := bind(w, r, &req); err != nil {
		badRequest(w, FormatBindingError(err))
		return
	}
	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		badRequest(w, "Field 'start_date' must be a date in YYYY-MM-DD format")
		return
	}
	end, err := model.ParseDate(req.EndDate)
	if err != nil {
		badRequest(w, "Field 'end_date' must be a date in YYYY-MM-DD format")
		return
	}

	leave, err := h.Service.Submit(r.Context(), actor, core.LeaveSubmission{
		StartDate: start,
		EndDate:   end,
		Type:      model.LeaveType(req.Type),
		Reason:    req.Reason,
		Note:      req.Note,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusCreated, "Request submitted", leave)
}

// ListMine handles GET /leave.
func (h *LeaveHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	reqs, err := h.Service.ListMine(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Leave requests", reqs)
}

// ListPending handles GET /admin/leave.
func (h *LeaveHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	reqs, err := h.Service.ListPending(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Pending leave requests", reqs)
}

// Decide handles PATCH /admin/leave/{id}.
func (h *LeaveHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	id := mux.Vars(r)["id"]
	if uuid.Validate(id) != nil {
		badRequest(w, "Path 'id' must be a UUID")
		return
	}

	var req DecideLeaveRequest
	if err := bind(w, r, &req); err != nil {
		badRequest(w, FormatBindingError(err))
		return
	}

	decision, err := h.Service.Decide(r.Context(), actor, id, model.LeaveStatus(req.Status), req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Request "+string(decision.Request.Status), decision)
}
