package controllers

import (
	"net/http"
	"time"

	"venuematch_server/models"
	"venuematch_server/services"
	"venuematch_server/utils"

	"github.com/gorilla/mux"
)

// MatchController handles HTTP requests for match-related actions
type MatchController struct {
	MatchService *services.MatchService
	Timeout      time.Duration
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService *services.MatchService, timeout time.Duration) *MatchController {
	return &MatchController{MatchService: matchService, Timeout: timeout}
}

// GetMatches lists the actor's matches, newest first
func (c *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	matches, err := c.MatchService.ListMatchesFor(ctx, userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]any{"matches": matches})
}

// GetMatch returns one match the actor is part of
func (c *MatchController) GetMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	match, err := c.MatchService.GetMatch(ctx, mux.Vars(r)["matchId"])
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if !match.HasParty(userID) {
		writeServiceError(w, services.ErrForbidden, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, match)
}

// ShareContact attaches the actor's contact info to a match
func (c *MatchController) ShareContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var request struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}
	if err := utils.DecodeJSONBody(r, &request); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	match, err := c.MatchService.ShareContact(ctx, mux.Vars(r)["matchId"], userID, models.ContactInfo{Kind: request.Kind, Value: request.Value})
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, match)
}
