package http

import (
	"log"
	"net/http"

	"angostura-trivia-service/internal/app"
	"angostura-trivia-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler streams leaderboard snapshots to websocket subscribers.
type WSHandler struct {
	feed     *app.LeaderboardFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(feed *app.LeaderboardFeed) *WSHandler {
	return &WSHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type leaderboardMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeLeaderboard handles GET /ws/leaderboard. The connection is
// push-only: the client receives the current snapshot on connect and a
// fresh one after every recorded result.
func (h *WSHandler) ServeLeaderboard(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.feed.Subscribe(c.Request.Context())
	if err != nil {
		_ = conn.WriteJSON(gin.H{"type": "error", "payload": gin.H{"message": "leaderboard unavailable"}})
		return
	}
	defer cancel()

	// Reader exists only to notice the peer going away; inbound frames
	// are discarded. cancel closes the updates channel, ending the writer.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for lb := range updates {
		if err := conn.WriteJSON(leaderboardMessage{Type: "leaderboard", Payload: lb}); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
