package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/1020robert/delph-merch/internal/middleware"
)

// ListUsers returns every registered member for the owner.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(middleware.GetUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// ApproveUser grants a pending member access.
func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Approve(middleware.GetUser(r), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, user)
}
