package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/1020robert/delph-merch/internal/middleware"
	"github.com/1020robert/delph-merch/internal/services/orders"
)

type placeRequest struct {
	ItemID          string `json:"itemId"`
	Quantity        int    `json:"quantity"`
	VenmoAgreed     bool   `json:"venmoAgreed"`
	SelectedSize    string `json:"selectedSize"`
	IncludeInitials bool   `json:"includeInitials"`
}

// PlaceOrder records an order for the signed-in member.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.orderService.Place(middleware.GetUser(r), orders.PlaceInput{
		ItemID:          req.ItemID,
		Quantity:        req.Quantity,
		VenmoAgreed:     req.VenmoAgreed,
		SelectedSize:    req.SelectedSize,
		IncludeInitials: req.IncludeInitials,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]any{
		"order":        result.Order,
		"notification": result.Notification,
	})
}

// MyOrders lists the signed-in member's orders, newest first.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.orderService.ListMine(middleware.GetUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"orders": list})
}

// ListOrders returns the open and fulfilled partitions for the owner.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	book, err := h.orderService.List(middleware.GetUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, book)
}

// OrderSummary aggregates open orders per item for the owner.
func (h *Handler) OrderSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.orderService.Summarize(middleware.GetUser(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

// FulfillOrder marks an order fulfilled by the signed-in owner.
func (h *Handler) FulfillOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.Fulfill(middleware.GetUser(r), mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, order)
}
