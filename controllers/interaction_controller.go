package controllers

import (
	"log"
	"net/http"
	"time"

	"venuematch_server/services"
	"venuematch_server/utils"
)

// InteractionController struct
type InteractionController struct {
	InteractionService *services.InteractionService
	Timeout            time.Duration
}

// NewInteractionController initializes the controller
func NewInteractionController(service *services.InteractionService, timeout time.Duration) *InteractionController {
	return &InteractionController{InteractionService: service, Timeout: timeout}
}

// HandleLikeUser - Actor likes another user at a venue
func (c *InteractionController) HandleLikeUser(w http.ResponseWriter, r *http.Request) {
	from, ok := actor(w, r)
	if !ok {
		return
	}
	var request struct {
		ToUserID string `json:"toUserId"`
		VenueID  string `json:"venueId"`
	}
	if err := utils.DecodeJSONBody(r, &request); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if request.ToUserID == "" || request.VenueID == "" {
		utils.WriteError(w, http.StatusBadRequest, "toUserId and venueId are required")
		return
	}

	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	log.Printf("💖 %s liked %s at %s", from, request.ToUserID, request.VenueID)
	result, err := c.InteractionService.RecordInterest(ctx, from, request.ToUserID, request.VenueID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, result)
}

// HandleMutualInterest - Diagnostics read of the mutual-interest state
func (c *InteractionController) HandleMutualInterest(w http.ResponseWriter, r *http.Request) {
	userA := r.URL.Query().Get("userA")
	userB := r.URL.Query().Get("userB")
	if userA == "" || userB == "" {
		utils.WriteError(w, http.StatusBadRequest, "userA and userB are required")
		return
	}

	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	mutual, err := c.InteractionService.HasMutualInterest(ctx, userA, userB)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]any{"userA": userA, "userB": userB, "mutual": mutual})
}
