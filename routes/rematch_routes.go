package routes

import (
	"time"

	"venuematch_server/controllers"
	"venuematch_server/services"

	"github.com/gorilla/mux"
)

// RegisterRematchRoutes sets up routes under /api/rematch
func RegisterRematchRoutes(r *mux.Router, rematchService *services.RematchService, matchService *services.MatchService, timeout time.Duration) {
	controller := controllers.NewRematchController(rematchService, matchService, timeout)

	rematchRouter := r.PathPrefix("/rematch").Subrouter()
	rematchRouter.HandleFunc("/{matchId}", controller.GetRematchStatus).Methods("GET")
	rematchRouter.HandleFunc("/{matchId}", controller.Rematch).Methods("POST")
}
