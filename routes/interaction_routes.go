package routes

import (
	"time"

	"venuematch_server/controllers"
	"venuematch_server/services"

	"github.com/gorilla/mux"
)

// RegisterInteractionRoutes sets up routes for likes under /api/interest
func RegisterInteractionRoutes(r *mux.Router, service *services.InteractionService, timeout time.Duration) {
	controller := controllers.NewInteractionController(service, timeout)

	interestRouter := r.PathPrefix("/interest").Subrouter()
	interestRouter.HandleFunc("", controller.HandleLikeUser).Methods("POST")
	interestRouter.HandleFunc("/mutual", controller.HandleMutualInterest).Methods("GET")
}
