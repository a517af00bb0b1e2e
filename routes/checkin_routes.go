package routes

import (
	"time"

	"venuematch_server/controllers"
	"venuematch_server/services"

	"github.com/gorilla/mux"
)

// RegisterCheckInRoutes sets up the development check-in recorder under /api/checkin
func RegisterCheckInRoutes(r *mux.Router, recorder services.CheckInRecorder, provider services.CheckInProvider, timeout time.Duration) {
	controller := controllers.NewCheckInController(recorder, provider, timeout)

	checkInRouter := r.PathPrefix("/checkin").Subrouter()
	checkInRouter.HandleFunc("", controller.GetCheckIn).Methods("GET")
	checkInRouter.HandleFunc("", controller.CheckIn).Methods("POST")
	checkInRouter.HandleFunc("", controller.CheckOut).Methods("DELETE")
}
