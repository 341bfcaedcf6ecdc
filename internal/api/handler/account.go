package handler

import (
	"net/http"

	"attendance.service/internal/core"
)

type AccountHandler struct {
	Service *core.AccountService
}

type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

// Verify handles POST /accounts/verify.
func (h *AccountHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := bind(w, r, &req); err != nil {
		badRequest(w, FormatBindingError(err))
		return
	}

	acc, err := h.Service.Verify(r.Context(), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok(w, http.StatusOK, "Account verified", acc)
}
