package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"pairchat/pkg/api/handlers"
	"pairchat/pkg/auth"
	"pairchat/pkg/config"
	"pairchat/pkg/store"
	"pairchat/pkg/telemetry"
)

// NewRouter builds the versioned API router with auth, rate limiting,
// CORS and telemetry applied to every /v1 route.
func NewRouter(st store.TxStore, cfg *config.Config) *mux.Router {
	h := handlers.New(st, cfg)

	r := mux.NewRouter()
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(telemetry.Middleware)
	v1.Use(corsMiddleware(cfg.Security.CORS.AllowedOrigins))
	v1.Use(auth.Middleware(cfg.Security))

	v1.HandleFunc("/users", h.CreateUser).Methods("POST")
	v1.HandleFunc("/users", h.ListUsers).Methods("GET")
	v1.HandleFunc("/users/{id}", h.GetUser).Methods("GET")

	v1.HandleFunc("/friend-requests", h.CreateFriendRequest).Methods("POST")
	v1.HandleFunc("/friend-requests", h.ListFriendRequests).Methods("GET")
	v1.HandleFunc("/friend-requests/{id}/accept", h.AcceptFriendRequest).Methods("POST")
	v1.HandleFunc("/friend-requests/{id}/reject", h.RejectFriendRequest).Methods("POST")

	v1.HandleFunc("/conversations", h.ListConversations).Methods("GET")
	v1.HandleFunc("/conversations/{id}/messages", h.ListMessages).Methods("GET")
	v1.HandleFunc("/conversations/{id}/messages", h.SendMessage).Methods("POST")
	v1.HandleFunc("/conversations/{id}/events", h.StreamEvents).Methods("GET")

	v1.HandleFunc("/messages/{id}", h.EditMessage).Methods("PUT")
	v1.HandleFunc("/messages/{id}", h.DeleteMessage).Methods("DELETE")

	return r
}

// corsMiddleware reflects allowed origins. An empty allowlist means CORS
// headers are not emitted at all.
func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowed := make(map[string]bool, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (wildcard || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Identity")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
