package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/1020robert/delph-merch/internal/apperr"
	"github.com/1020robert/delph-merch/internal/services/catalog"
)

// ListMerch returns the published catalog members see.
func (h *Handler) ListMerch(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogService.ListPublic()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ListAllMerch returns the full catalog, paused items included.
func (h *Handler) ListAllMerch(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogService.ListAll()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateMerch creates a listing from a multipart form with an image.
func (h *Handler) CreateMerch(w http.ResponseWriter, r *http.Request) {
	// The image limit plus headroom for the other form fields.
	limit := h.cfg.MaxUploadBytes + (1 << 20)
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		h.respondError(w, r, apperr.Validation("upload is too large or not a valid form"))
		return
	}

	price, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("price")))
	if err != nil {
		h.respondError(w, r, apperr.Validation("price must be a number"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.respondError(w, r, apperr.Validation("an item image is required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, r, apperr.Validation("failed to read the uploaded image"))
		return
	}

	item, err := h.catalogService.Create(catalog.CreateInput{
		Name:          r.FormValue("name"),
		Price:         price,
		ImageName:     header.Filename,
		ImageData:     data,
		IncludeSizes:  formBool(r.FormValue("includeSizes")),
		AllowInitials: formBool(r.FormValue("allowInitials")),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, item)
}

// UpdateMerch applies a partial update to one listing.
func (h *Handler) UpdateMerch(w http.ResponseWriter, r *http.Request) {
	var patch catalog.UpdatePatch
	if err := h.decodeJSON(r, &patch); err != nil {
		h.respondError(w, r, err)
		return
	}

	item, err := h.catalogService.Update(mux.Vars(r)["id"], patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, item)
}

// DeleteMerch removes a listing.
func (h *Handler) DeleteMerch(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalogService.Delete(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, item)
}

// formBool reads checkbox-style form values.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
