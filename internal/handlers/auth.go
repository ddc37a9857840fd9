package handlers

import (
	"net/http"
	"time"

	"github.com/1020robert/delph-merch/internal/middleware"
	"github.com/1020robert/delph-merch/internal/models"
	"github.com/1020robert/delph-merch/internal/services/auth"
)

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Initials  string `json:"initials"`
}

type loginRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles new member sign-up
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.authService.Register(auth.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Initials:  req.Initials,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.Expires)
	h.respondJSON(w, http.StatusCreated, sessionResponse{User: result.User, Token: result.Token})
}

// Login handles member sign-in
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.authService.Login(req.Email)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.Expires)
	h.respondJSON(w, http.StatusOK, sessionResponse{User: result.User, Token: result.Token})
}

// Logout revokes the caller's session
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(middleware.TokenFromRequest(r))
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type verifyPasswordRequest struct {
	Password string `json:"password"`
}

// VerifyPassword checks the shared site password for the caller's session
func (h *Handler) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req verifyPasswordRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.authService.VerifyPassword(middleware.TokenFromRequest(r), req.Password); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

type meResponse struct {
	User             *models.User `json:"user"`
	Owner            bool         `json:"owner"`
	Approved         bool         `json:"approved"`
	PasswordVerified bool         `json:"passwordVerified"`
	PasswordRequired bool         `json:"passwordRequired"`
}

// Me describes the caller and how far through the gates they are, so the
// client knows which screen to show next.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	sess := middleware.GetSession(r)

	h.respondJSON(w, http.StatusOK, meResponse{
		User:             user,
		Owner:            h.authService.IsOwner(user),
		Approved:         h.authService.ApprovalGranted(user),
		PasswordVerified: sess.PasswordVerified || !h.cfg.GateEnabled(),
		PasswordRequired: h.cfg.GateEnabled(),
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
}
