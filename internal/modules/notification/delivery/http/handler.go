package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	notif "linkupserver/internal/modules/notification/service"
	"linkupserver/pkg/response"
)

var errNoLiveFeed = errors.New("live notice feed is not available")

type NotificationHandler struct {
	notifService notif.NotificationService
	redisClient  *redis.Client
	upgrader     websocket.Upgrader
}

func NewNotificationHandler(notifService notif.NotificationService, redisClient *redis.Client) *NotificationHandler {
	return &NotificationHandler{
		notifService: notifService,
		redisClient:  redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// List serves GET /notices: the stored feed, oldest first.
func (h *NotificationHandler) List(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	notices, err := h.notifService.List(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "notices", gin.H{"notices": notices})
}

// HandleWebSocket serves GET /notices/ws: a live stream of the caller's
// notices forwarded from the redis pub/sub channel. Browsers cannot set an
// Authorization header on websocket upgrades, so the auth middleware on this
// route also accepts ?token=.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.redisClient == nil {
		response.Error(c, errNoLiveFeed)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("notices: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	pubsub := h.redisClient.Subscribe(c.Request.Context(), notif.Channel(uid))
	defer pubsub.Close()

	if _, err := pubsub.Receive(c.Request.Context()); err != nil {
		log.Printf("notices: subscribe failed for %s: %v", uid, err)
		return
	}

	ch := pubsub.Channel()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			// The publish payload is already the notice JSON; forward as-is.
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
