// Package handlers provides HTTP request handlers
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/1020robert/delph-merch/internal/apperr"
	"github.com/1020robert/delph-merch/internal/config"
	"github.com/1020robert/delph-merch/internal/middleware"
	"github.com/1020robert/delph-merch/internal/services/auth"
	"github.com/1020robert/delph-merch/internal/services/catalog"
	"github.com/1020robert/delph-merch/internal/services/orders"
)

// maxJSONBody caps JSON request bodies; uploads have their own limit.
const maxJSONBody = 1 << 20

// Handler contains all HTTP handlers and dependencies
type Handler struct {
	cfg            *config.Config
	authService    *auth.Service
	catalogService *catalog.Service
	orderService   *orders.Service
	log            zerolog.Logger
}

// New creates a new handler with all dependencies
func New(
	cfg *config.Config,
	authService *auth.Service,
	catalogService *catalog.Service,
	orderService *orders.Service,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		cfg:            cfg,
		authService:    authService,
		catalogService: catalogService,
		orderService:   orderService,
		log:            log,
	}
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondJSON writes data as the JSON response body.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError maps err onto the JSON error envelope. Unclassified errors
// are logged with the request ID and shown to the client as a generic 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		h.log.Error().
			Err(err).
			Str("requestId", middleware.GetRequestID(r)).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	h.respondJSON(w, apperr.Status(err), errorResponse{
		Error:   apperr.Code(err),
		Message: apperr.Message(err),
	})
}

// decodeJSON reads a bounded JSON body into dst.
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst); err != nil {
		return apperr.Validation("request body must be valid JSON")
	}
	return nil
}
