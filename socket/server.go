package socket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"venuematch_server/auth"
	"venuematch_server/models"

	socketio "github.com/googollee/go-socket.io"
)

const namespace = "/"

// UserRoom is the room every connection of a user joins.
func UserRoom(userID string) string { return "user:" + userID }

type broadcaster interface {
	BroadcastToRoom(namespace, room, event string, args ...interface{}) bool
}

// JoinRequest is the payload of the "join" event.
type JoinRequest struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Hub is the real-time channel. Clients join their own user room and
// receive every engine event addressed to them.
type Hub struct {
	server *socketio.Server
	rooms  broadcaster
	jwt    *auth.JWT
}

// NewHub builds the Socket.IO server. With a non-nil jwt, joins must carry a
// valid token; otherwise the userId in the payload is trusted.
func NewHub(jwt *auth.JWT) *Hub {
	server := socketio.NewServer(nil)
	h := &Hub{server: server, rooms: server, jwt: jwt}

	server.OnConnect(namespace, func(s socketio.Conn) error {
		log.Println("✅ Socket connected:", s.ID())
		return nil
	})

	server.OnEvent(namespace, "join", func(s socketio.Conn, req JoinRequest) string {
		userID, err := h.resolveJoin(req)
		if err != nil {
			log.Printf("❌ Rejected join from %s: %v", s.ID(), err)
			s.Emit("error", map[string]string{"error": "unauthenticated"})
			return "rejected"
		}
		s.SetContext(userID)
		s.Join(UserRoom(userID))
		log.Printf("👥 Socket %s joined as %s", s.ID(), userID)
		return "joined"
	})

	server.OnError(namespace, func(s socketio.Conn, err error) {
		log.Printf("⚠️ Socket error: %v", err)
	})

	server.OnDisconnect(namespace, func(s socketio.Conn, reason string) {
		log.Printf("❌ Socket disconnected: %s (%s)", s.ID(), reason)
	})

	return h
}

func (h *Hub) resolveJoin(req JoinRequest) (string, error) {
	if h.jwt != nil {
		claims, err := h.jwt.Parse(req.Token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}
	if req.UserID == "" {
		return "", errors.New("userId is required")
	}
	return req.UserID, nil
}

// Publish pushes event to every socket of its user.
func (h *Hub) Publish(ctx context.Context, event models.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !h.rooms.BroadcastToRoom(namespace, UserRoom(event.UserID), string(event.Type), event) {
		return fmt.Errorf("socket namespace %s is not registered", namespace)
	}
	return nil
}

// Handler serves /socket.io/.
func (h *Hub) Handler() http.Handler { return h.server }

// Serve runs the socket event loop until Close.
func (h *Hub) Serve() {
	if err := h.server.Serve(); err != nil {
		log.Printf("❌ Socket server stopped: %v", err)
	}
}

func (h *Hub) Close() error { return h.server.Close() }
