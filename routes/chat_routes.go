package routes

import (
	"time"

	"venuematch_server/controllers"
	"venuematch_server/services"

	"github.com/gorilla/mux"
)

// RegisterChatRoutes sets up routes for chat-related operations under /api/chat
func RegisterChatRoutes(r *mux.Router, chatService *services.ChatService, rematchService *services.RematchService, timeout time.Duration) {
	controller := controllers.NewChatController(chatService, rematchService, timeout)

	chatRouter := r.PathPrefix("/chat/{matchId}").Subrouter()
	chatRouter.HandleFunc("/messages", controller.HandleGetMessages).Methods("GET")
	chatRouter.HandleFunc("/messages", controller.HandleSendMessage).Methods("POST")
	chatRouter.HandleFunc("/quota", controller.HandleGetQuota).Methods("GET")
	chatRouter.HandleFunc("/read", controller.HandleMarkMessagesAsRead).Methods("POST")
	chatRouter.HandleFunc("/typing", controller.HandleGetTyping).Methods("GET")
	chatRouter.HandleFunc("/typing", controller.HandleSetTyping).Methods("POST")
}
