package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/1020robert/delph-merch/internal/config"
	"github.com/1020robert/delph-merch/internal/handlers"
	"github.com/1020robert/delph-merch/internal/middleware"
)

// Setup builds the routing table. Auth tiers nest as subrouters: every
// /api/v1 route resolves the session if one is presented, member routes
// require a full session, /admin routes require the owner.
func Setup(cfg *config.Config, h *handlers.Handler, authmw *middleware.Auth, uploadsDir string, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()

	r.Use(
		middleware.Recover(log),
		middleware.RequestLogging(log),
		middleware.SecurityHeaders,
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(rate.Limit(50), 100),
	)

	r.HandleFunc("/health", h.Health).Methods("GET")

	// Managed item images. Filenames are server-generated UUIDs, so the
	// directory holds nothing worth hiding.
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))),
	).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authmw.Authenticate)

	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", h.Register).Methods("POST")
	authRoutes.HandleFunc("/login", h.Login).Methods("POST")

	sessionRoutes := authRoutes.PathPrefix("").Subrouter()
	sessionRoutes.Use(authmw.RequireAuth)
	sessionRoutes.HandleFunc("/logout", h.Logout).Methods("POST")
	sessionRoutes.HandleFunc("/verify-password", h.VerifyPassword).Methods("POST")
	sessionRoutes.HandleFunc("/me", h.Me).Methods("GET")

	merch := api.PathPrefix("/merch").Subrouter()
	merch.Use(authmw.RequireAuth, authmw.RequireFull)
	merch.HandleFunc("", h.ListMerch).Methods("GET")

	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(authmw.RequireAuth, authmw.RequireFull)
	orders.HandleFunc("", h.PlaceOrder).Methods("POST")
	orders.HandleFunc("/mine", h.MyOrders).Methods("GET")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authmw.RequireAuth, authmw.RequireFull, authmw.RequireOwner)
	admin.HandleFunc("/merch", h.ListAllMerch).Methods("GET")
	admin.HandleFunc("/merch", h.CreateMerch).Methods("POST")
	admin.HandleFunc("/merch/{id}", h.UpdateMerch).Methods("PATCH")
	admin.HandleFunc("/merch/{id}", h.DeleteMerch).Methods("DELETE")
	admin.HandleFunc("/orders", h.ListOrders).Methods("GET")
	admin.HandleFunc("/orders/summary", h.OrderSummary).Methods("GET")
	admin.HandleFunc("/orders/{id}/fulfill", h.FulfillOrder).Methods("POST")
	admin.HandleFunc("/users", h.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/approve", h.ApproveUser).Methods("POST")

	return r
}
