package controllers

import (
	"net/http"
	"time"

	"venuematch_server/services"
	"venuematch_server/utils"
)

// CheckInController records venue presence for local runs and demos. In
// production check-ins come from the venue service.
type CheckInController struct {
	Recorder services.CheckInRecorder
	Provider services.CheckInProvider
	Timeout  time.Duration
}

func NewCheckInController(recorder services.CheckInRecorder, provider services.CheckInProvider, timeout time.Duration) *CheckInController {
	return &CheckInController{Recorder: recorder, Provider: provider, Timeout: timeout}
}

// CheckIn places the actor at a venue
func (c *CheckInController) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var request struct {
		VenueID string `json:"venueId"`
	}
	if err := utils.DecodeJSONBody(r, &request); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if request.VenueID == "" {
		utils.WriteError(w, http.StatusBadRequest, "venueId is required")
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	checkIn, err := c.Recorder.CheckIn(ctx, userID, request.VenueID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, checkIn)
}

// GetCheckIn returns the actor's current check-in, null when none
func (c *CheckInController) GetCheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	checkIn, err := c.Provider.IsCheckedIn(ctx, userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]any{"checkIn": checkIn})
}

// CheckOut removes the actor's check-in
func (c *CheckInController) CheckOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	if err := c.Recorder.CheckOut(ctx, userID); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
