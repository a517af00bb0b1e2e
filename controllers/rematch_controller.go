package controllers

import (
	"log"
	"net/http"
	"time"

	"venuematch_server/services"
	"venuematch_server/utils"

	"github.com/gorilla/mux"
)

// RematchController exposes the one-shot rematch of an expired match
type RematchController struct {
	RematchService *services.RematchService
	MatchService   *services.MatchService
	Timeout        time.Duration
}

func NewRematchController(rematch *services.RematchService, matches *services.MatchService, timeout time.Duration) *RematchController {
	return &RematchController{RematchService: rematch, MatchService: matches, Timeout: timeout}
}

// GetRematchStatus reports whether the match's pair can still rematch
func (c *RematchController) GetRematchStatus(w http.ResponseWriter, r *http.Request) {
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
	available, err := c.RematchService.CanRematch(ctx, match.PairKey())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"matchId":          match.ID,
		"pairKey":          match.PairKey(),
		"rematchAvailable": available && match.RematchedFromID == "",
	})
}

// Rematch creates the successor match
func (c *RematchController) Rematch(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["matchId"]
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	match, err := c.RematchService.Rematch(ctx, matchID, userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	log.Printf("🔁 %s rematched %s into %s", userID, matchID, match.ID)
	utils.WriteJSONResponse(w, http.StatusCreated, match)
}
