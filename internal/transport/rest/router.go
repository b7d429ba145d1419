package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"mathbattle/internal/engine"
	"mathbattle/internal/service"
	"mathbattle/internal/transport/rest/handler"
	"mathbattle/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router
type Container struct {
	Engine         *engine.Engine
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	battleHandler := handler.NewBattleHandler(c.Engine)
	userHandler := handler.NewUserHandler(c.ProfileService, c.AuthService)
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	// Poll responses must never be served from an intermediate cache.
	api.Use(noStoreMiddleware)

	// Public routes
	api.HandleFunc("/login", userHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/user", userHandler.GetUser).Methods("GET", "OPTIONS")
	api.HandleFunc("/leaderboard", userHandler.Leaderboard).Methods("GET", "OPTIONS")

	// Battle routes: the polling protocol carries no session state, every
	// request names its room and player explicitly.
	api.HandleFunc("/battle/join", battleHandler.Join).Methods("POST", "OPTIONS")
	api.HandleFunc("/battle/ready", battleHandler.Ready).Methods("POST", "OPTIONS")
	api.HandleFunc("/battle/leave", battleHandler.Leave).Methods("POST", "OPTIONS")
	api.HandleFunc("/battle/start", battleHandler.Start).Methods("POST", "OPTIONS")
	api.HandleFunc("/battle/update", battleHandler.Update).Methods("POST", "OPTIONS")
	api.HandleFunc("/battle/poll", battleHandler.Poll).Methods("POST", "OPTIONS")
	api.HandleFunc("/battle/reset", battleHandler.Reset).Methods("POST", "OPTIONS")
	api.HandleFunc("/battle/config", battleHandler.Config).Methods("POST", "OPTIONS")
	api.HandleFunc("/battle/topics", battleHandler.Topics).Methods("GET", "OPTIONS")

	// Profile mutations require a player token
	authRoutes := api.NewRoute().Subrouter()
	authRoutes.Use(authMW.RequirePlayer)
	authRoutes.HandleFunc("/result", userHandler.SaveResult).Methods("POST", "OPTIONS")
	authRoutes.HandleFunc("/action", userHandler.Action).Methods("POST", "OPTIONS")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func noStoreMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate, max-age=0")
		next.ServeHTTP(w, r)
	})
}
