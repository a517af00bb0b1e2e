package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"venuematch_server/services"
	"venuematch_server/utils"

	"github.com/gorilla/mux"
)

// ChatController struct
type ChatController struct {
	ChatService    *services.ChatService
	RematchService *services.RematchService
	Timeout        time.Duration
}

// NewChatController initializes the chat controller
func NewChatController(chat *services.ChatService, rematch *services.RematchService, timeout time.Duration) *ChatController {
	return &ChatController{ChatService: chat, RematchService: rematch, Timeout: timeout}
}

// writeGateError adds the rematch affordance to expiry failures.
func (c *ChatController) writeGateError(ctx context.Context, w http.ResponseWriter, matchID string, err error) {
	if !errors.Is(err, services.ErrExpired) {
		writeServiceError(w, err, nil)
		return
	}
	available := false
	if match, getErr := c.ChatService.Matches.GetMatch(ctx, matchID); getErr == nil {
		if ok, rematchErr := c.RematchService.CanRematch(ctx, match.PairKey()); rematchErr == nil {
			available = ok && match.RematchedFromID == ""
		}
	}
	writeServiceError(w, err, map[string]any{"rematchAvailable": available})
}

// HandleGetMessages - Fetch the thread of a match
func (c *ChatController) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	messages, err := c.ChatService.ListMessages(ctx, mux.Vars(r)["matchId"], userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]any{"messages": messages})
}

// HandleSendMessage - Handles sending a new message
func (c *ChatController) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var request struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSONBody(r, &request); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	matchID := mux.Vars(r)["matchId"]

	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	msg, err := c.ChatService.Send(ctx, matchID, userID, request.Text)
	if err != nil {
		log.Printf("❌ Failed to send message in %s: %v", matchID, err)
		c.writeGateError(ctx, w, matchID, err)
		return
	}
	log.Printf("📩 %s sent message %s in match %s", userID, msg.ID, matchID)
	utils.WriteJSONResponse(w, http.StatusCreated, msg)
}

// HandleGetQuota - Remaining quota and whether the actor may send now
func (c *ChatController) HandleGetQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	matchID := mux.Vars(r)["matchId"]
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	remaining, err := c.ChatService.RemainingQuota(ctx, matchID, userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	decision, err := c.ChatService.CanSend(ctx, matchID, userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"matchId":   matchID,
		"remaining": remaining,
		"canSend":   decision.Allowed,
		"reason":    decision.Reason,
	})
}

// HandleMarkMessagesAsRead - Mark the thread read for the actor
func (c *ChatController) HandleMarkMessagesAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	updated, err := c.ChatService.MarkRead(ctx, mux.Vars(r)["matchId"], userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]any{"status": "success", "updated": updated})
}

// HandleSetTyping - Start or stop the actor's typing indicator
func (c *ChatController) HandleSetTyping(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	var request struct {
		IsTyping bool `json:"isTyping"`
	}
	if err := utils.DecodeJSONBody(r, &request); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	if err := c.ChatService.SetTyping(ctx, mux.Vars(r)["matchId"], userID, request.IsTyping); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetTyping - Who is typing in the match right now
func (c *ChatController) HandleGetTyping(w http.ResponseWriter, r *http.Request) {
	userID, ok := actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r, c.Timeout)
	defer cancel()

	states, err := c.ChatService.TypingIn(ctx, mux.Vars(r)["matchId"], userID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]any{"typing": states})
}
