package routes

import (
	"net/http"
	"time"

	"venuematch_server/auth"
	"venuematch_server/controllers"
	"venuematch_server/metrics"
	"venuematch_server/services"

	"github.com/gorilla/mux"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Engine         *services.Engine
	CheckIns       services.CheckInProvider
	Auth           *auth.Authenticator
	Socket         http.Handler
	RequestTimeout time.Duration
}

// NewRouter builds the full application router.
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()
	RegisterRoutes(r)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(deps.Auth.Middleware)

	RegisterInteractionRoutes(api, deps.Engine.Interactions, deps.RequestTimeout)
	RegisterMatchRoutes(api, deps.Engine.Matches, deps.RequestTimeout)
	RegisterChatRoutes(api, deps.Engine.Chat, deps.Engine.Rematch, deps.RequestTimeout)
	RegisterRematchRoutes(api, deps.Engine.Rematch, deps.Engine.Matches, deps.RequestTimeout)
	if recorder, ok := deps.CheckIns.(services.CheckInRecorder); ok {
		RegisterCheckInRoutes(api, recorder, deps.CheckIns, deps.RequestTimeout)
	}

	if deps.Socket != nil {
		r.PathPrefix("/socket.io/").Handler(deps.Socket)
	}
	return r
}

// RegisterRoutes sets up the unauthenticated routes
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/", controllers.WelcomeHandler).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
}
