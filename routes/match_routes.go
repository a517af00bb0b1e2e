package routes

import (
	"time"

	"venuematch_server/controllers"
	"venuematch_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for match-related operations under /api/match
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService, timeout time.Duration) {
	controller := controllers.NewMatchController(matchService, timeout)

	matchRouter := r.PathPrefix("/match").Subrouter()
	matchRouter.HandleFunc("", controller.GetMatches).Methods("GET")
	matchRouter.HandleFunc("/{matchId}", controller.GetMatch).Methods("GET")
	matchRouter.HandleFunc("/{matchId}/contact", controller.ShareContact).Methods("POST")
}
